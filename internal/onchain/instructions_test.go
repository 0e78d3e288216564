package onchain

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestDiscriminatorMatchesAnchorConvention(t *testing.T) {
	want := sha256.Sum256([]byte("global:resolve_duel"))
	got := discriminator("resolve_duel")
	if got != [8]byte(want[:8]) {
		t.Fatalf("discriminator(%q) = %x, want sha256(global:%s)[:8] = %x", "resolve_duel", got, "resolve_duel", want[:8])
	}
}

func TestDiscriminatorsAreDistinctPerInstruction(t *testing.T) {
	names := []string{"initialize_pool", "swap", "close_pool", "create_duel", "join_duel", "start_duel", "resolve_duel", "cancel_duel"}
	seen := make(map[[8]byte]string)
	for _, n := range names {
		d := discriminator(n)
		if prior, ok := seen[d]; ok {
			t.Fatalf("discriminator collision between %q and %q", n, prior)
		}
		seen[d] = n
	}
}

func TestBuildResolveDuelEncodesExitPriceAndAccountOrder(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	duel := solana.NewWallet().PublicKey()
	player1 := solana.NewWallet().PublicKey()
	player2 := solana.NewWallet().PublicKey()
	feeCollector := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	exitPrice := uint64(123_456_789)

	ix := BuildResolveDuel(programID, duel, player1, player2, feeCollector, authority, exitPrice)

	data, err := ix.Data()
	if err != nil {
		t.Fatalf("instruction data: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("expected 16 bytes of instruction data, got %d", len(data))
	}
	gotPrice := binary.LittleEndian.Uint64(data[8:16])
	if gotPrice != exitPrice {
		t.Fatalf("exit_price encoded as %d, want %d", gotPrice, exitPrice)
	}

	accounts := ix.Accounts()
	if len(accounts) != 6 {
		t.Fatalf("expected 6 accounts, got %d", len(accounts))
	}
	if !accounts[0].PublicKey.Equals(duel) || !accounts[0].IsWritable {
		t.Fatalf("account[0] should be writable duel PDA")
	}
	if !accounts[4].PublicKey.Equals(authority) || !accounts[4].IsSigner {
		t.Fatalf("account[4] should be the signing authority")
	}
}

func TestBuildCancelDuelPassesDuelAsVault(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	duel := solana.NewWallet().PublicKey()
	player1 := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	ix := BuildCancelDuel(programID, duel, player1, duel, authority)

	accounts := ix.Accounts()
	var vaultCount int
	for _, a := range accounts {
		if a.PublicKey.Equals(duel) {
			vaultCount++
		}
	}
	if vaultCount < 2 {
		t.Fatalf("expected the duel PDA to appear as both the duel account and the vault account, got %d occurrences", vaultCount)
	}
}
