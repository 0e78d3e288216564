package onchain

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PoolPDA derives the Pool PDA: ["amm_pool", authority, yes_mint, no_mint].
func PoolPDA(programID, authority, yesMint, noMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte("amm_pool"), authority.Bytes(), yesMint.Bytes(), noMint.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive pool PDA: %w", err)
	}
	return pda, bump, nil
}

// YesVaultPDA derives the YES vault PDA: ["yes_vault", authority, yes_mint, no_mint].
func YesVaultPDA(programID, authority, yesMint, noMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte("yes_vault"), authority.Bytes(), yesMint.Bytes(), noMint.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive yes vault PDA: %w", err)
	}
	return pda, bump, nil
}

// NoVaultPDA derives the NO vault PDA: ["no_vault", authority, yes_mint, no_mint].
func NoVaultPDA(programID, authority, yesMint, noMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte("no_vault"), authority.Bytes(), yesMint.Bytes(), noMint.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive no vault PDA: %w", err)
	}
	return pda, bump, nil
}

// DuelPDA derives the Duel PDA: ["duel", onchain_duel_id.to_le_bytes()].
func DuelPDA(programID solana.PublicKey, onchainDuelID uint64) (solana.PublicKey, uint8, error) {
	idBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(idBytes, onchainDuelID)

	pda, bump, err := solana.FindProgramAddress([][]byte{[]byte("duel"), idBytes}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive duel PDA: %w", err)
	}
	return pda, bump, nil
}
