// Package onchain builds, signs, and dispatches the settlement core's
// on-chain instructions against the Solana program, and deserializes the
// Pool/Duel account state it reads back.
package onchain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client is the authority-signing dispatcher for instructions the
// coordinator drives server-side (StartDuel, ResolveDuel, CancelDuel,
// and the pool-admin operations InitializePool/ClosePool). Client-signed
// instructions (CreateDuel, JoinDuel, Swap) are built with the exported
// BuildXXX helpers and returned to the caller for the user's wallet to sign.
type Client struct {
	rpc          *rpc.Client
	programID    solana.PublicKey
	authority    solana.PrivateKey
	feeCollector solana.PublicKey
}

func NewClient(rpcURL, programID, authorityPrivateKeyBase58, feeCollectorPubkey string) (*Client, error) {
	program, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}
	authority, err := solana.PrivateKeyFromBase58(authorityPrivateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid authority private key: %w", err)
	}
	feeCollector, err := solana.PublicKeyFromBase58(feeCollectorPubkey)
	if err != nil {
		return nil, fmt.Errorf("invalid fee collector pubkey: %w", err)
	}

	return &Client{
		rpc:          rpc.New(rpcURL),
		programID:    program,
		authority:    authority,
		feeCollector: feeCollector,
	}, nil
}

func (c *Client) ProgramID() solana.PublicKey { return c.programID }
func (c *Client) Authority() solana.PublicKey { return c.authority.PublicKey() }

// sendAsAuthority signs ix with the authority key and submits it, returning the signature.
func (c *Client) sendAsAuthority(ctx context.Context, ix solana.Instruction) (string, error) {
	recent, err := c.rpc.GetRecentBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction([]solana.Instruction{ix}, recent.Value.Blockhash, solana.TransactionPayer(c.authority.PublicKey()))
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.authority.PublicKey()) {
			return &c.authority
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return sig.String(), nil
}

// StartDuel dispatches StartDuel(entry_price) as the resolver authority.
func (c *Client) StartDuel(ctx context.Context, onchainDuelID uint64, entryPrice uint64) (string, error) {
	duelPDA, _, err := DuelPDA(c.programID, onchainDuelID)
	if err != nil {
		return "", err
	}
	ix := BuildStartDuel(c.programID, duelPDA, c.authority.PublicKey(), entryPrice)
	return c.sendAsAuthority(ctx, ix)
}

// ResolveDuel dispatches ResolveDuel(exit_price) as the resolver authority.
func (c *Client) ResolveDuel(ctx context.Context, onchainDuelID uint64, exitPrice uint64, player1, player2 solana.PublicKey) (string, error) {
	duelPDA, _, err := DuelPDA(c.programID, onchainDuelID)
	if err != nil {
		return "", err
	}
	ix := BuildResolveDuel(c.programID, duelPDA, player1, player2, c.feeCollector, c.authority.PublicKey(), exitPrice)
	return c.sendAsAuthority(ctx, ix)
}

// CancelDuel dispatches CancelDuel() as the resolver authority (expiry sweep
// or emergency escape).
func (c *Client) CancelDuel(ctx context.Context, onchainDuelID uint64, player1, vault solana.PublicKey) (string, error) {
	duelPDA, _, err := DuelPDA(c.programID, onchainDuelID)
	if err != nil {
		return "", err
	}
	ix := BuildCancelDuel(c.programID, duelPDA, player1, vault, c.authority.PublicKey())
	return c.sendAsAuthority(ctx, ix)
}

// InitializePool dispatches InitializePool as the pool authority.
func (c *Client) InitializePool(ctx context.Context, yesMint, noMint solana.PublicKey, feeBps uint16, initialYes, initialNo uint64) (sig string, pool solana.PublicKey, err error) {
	pool, _, err = PoolPDA(c.programID, c.authority.PublicKey(), yesMint, noMint)
	if err != nil {
		return "", solana.PublicKey{}, err
	}
	yesVault, _, err := YesVaultPDA(c.programID, c.authority.PublicKey(), yesMint, noMint)
	if err != nil {
		return "", solana.PublicKey{}, err
	}
	noVault, _, err := NoVaultPDA(c.programID, c.authority.PublicKey(), yesMint, noMint)
	if err != nil {
		return "", solana.PublicKey{}, err
	}
	ix := BuildInitializePool(c.programID, c.authority.PublicKey(), pool, yesVault, noVault, yesMint, noMint, feeBps, initialYes, initialNo)
	sig, err = c.sendAsAuthority(ctx, ix)
	return sig, pool, err
}

// ClosePool dispatches ClosePool as the pool authority.
func (c *Client) ClosePool(ctx context.Context, yesMint, noMint solana.PublicKey) (string, error) {
	pool, _, err := PoolPDA(c.programID, c.authority.PublicKey(), yesMint, noMint)
	if err != nil {
		return "", err
	}
	yesVault, _, err := YesVaultPDA(c.programID, c.authority.PublicKey(), yesMint, noMint)
	if err != nil {
		return "", err
	}
	noVault, _, err := NoVaultPDA(c.programID, c.authority.PublicKey(), yesMint, noMint)
	if err != nil {
		return "", err
	}
	ix := BuildClosePool(c.programID, pool, yesVault, noVault, c.authority.PublicKey())
	return c.sendAsAuthority(ctx, ix)
}

// GetPool fetches and deserializes a Pool account.
func (c *Client) GetPool(ctx context.Context, poolAddr solana.PublicKey) (*PoolAccount, error) {
	info, err := c.rpc.GetAccountInfo(ctx, poolAddr)
	if err != nil {
		return nil, fmt.Errorf("fetch pool account: %w", err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("pool account not found")
	}
	return DeserializePool(info.Value.Data.GetBinary())
}

// GetDuel fetches and deserializes a Duel account.
func (c *Client) GetDuel(ctx context.Context, onchainDuelID uint64) (*DuelAccount, error) {
	duelPDA, _, err := DuelPDA(c.programID, onchainDuelID)
	if err != nil {
		return nil, err
	}
	info, err := c.rpc.GetAccountInfo(ctx, duelPDA)
	if err != nil {
		return nil, fmt.Errorf("fetch duel account: %w", err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("duel account not found")
	}
	return DeserializeDuel(info.Value.Data.GetBinary())
}
