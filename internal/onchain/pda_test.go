package onchain

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestDuelPDADeterministic(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	pda1, bump1, err := DuelPDA(programID, 42)
	if err != nil {
		t.Fatalf("DuelPDA: %v", err)
	}
	pda2, bump2, err := DuelPDA(programID, 42)
	if err != nil {
		t.Fatalf("DuelPDA: %v", err)
	}

	if pda1 != pda2 || bump1 != bump2 {
		t.Fatalf("DuelPDA not deterministic for the same onchain_duel_id: got %s/%d and %s/%d", pda1, bump1, pda2, bump2)
	}
}

func TestDuelPDADiffersByID(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	pdaA, _, err := DuelPDA(programID, 1)
	if err != nil {
		t.Fatalf("DuelPDA: %v", err)
	}
	pdaB, _, err := DuelPDA(programID, 2)
	if err != nil {
		t.Fatalf("DuelPDA: %v", err)
	}

	if pdaA == pdaB {
		t.Fatalf("expected distinct PDAs for distinct onchain_duel_id, got the same address %s", pdaA)
	}
}

func TestPoolPDADiffersByMintPair(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	yesMint := solana.NewWallet().PublicKey()
	noMint := solana.NewWallet().PublicKey()
	otherMint := solana.NewWallet().PublicKey()

	pda1, _, err := PoolPDA(programID, authority, yesMint, noMint)
	if err != nil {
		t.Fatalf("PoolPDA: %v", err)
	}
	pda2, _, err := PoolPDA(programID, authority, yesMint, otherMint)
	if err != nil {
		t.Fatalf("PoolPDA: %v", err)
	}

	if pda1 == pda2 {
		t.Fatalf("expected distinct Pool PDAs for distinct mint pairs")
	}
}

func TestYesAndNoVaultPDAsDiffer(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	yesMint := solana.NewWallet().PublicKey()
	noMint := solana.NewWallet().PublicKey()

	yesPDA, _, err := YesVaultPDA(programID, authority, yesMint, noMint)
	if err != nil {
		t.Fatalf("YesVaultPDA: %v", err)
	}
	noPDA, _, err := NoVaultPDA(programID, authority, yesMint, noMint)
	if err != nil {
		t.Fatalf("NoVaultPDA: %v", err)
	}

	if yesPDA == noPDA {
		t.Fatalf("expected YES and NO vault PDAs to differ, both seeds derived to %s", yesPDA)
	}
}
