package onchain

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PoolAccount mirrors the on-chain Pool account layout (§3, §4.2), skipping
// the 8-byte Anchor discriminator on deserialization.
type PoolAccount struct {
	OnchainPoolID    uint64
	Authority        solana.PublicKey
	YesMint          solana.PublicKey
	NoMint           solana.PublicKey
	YesReserve       uint64
	NoReserve        uint64
	BaseYesLiquidity uint64
	BaseNoLiquidity  uint64
	FeeBps           uint16
	Status           uint8 // 0 = Active, 1 = Closed
	Bump             uint8
}

const poolAccountMinLen = 8 + 32 + 32 + 32 + 8 + 8 + 8 + 8 + 2 + 1 + 1

// DeserializePool parses a Pool account's raw data, discriminator included.
func DeserializePool(data []byte) (*PoolAccount, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("invalid pool account: too short for discriminator")
	}
	data = data[8:]
	if len(data) < poolAccountMinLen {
		return nil, fmt.Errorf("invalid pool account: expected at least %d bytes, got %d", poolAccountMinLen, len(data))
	}

	p := &PoolAccount{}
	off := 0

	p.OnchainPoolID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.Authority = solana.PublicKeyFromBytes(data[off : off+32])
	off += 32
	p.YesMint = solana.PublicKeyFromBytes(data[off : off+32])
	off += 32
	p.NoMint = solana.PublicKeyFromBytes(data[off : off+32])
	off += 32
	p.YesReserve = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.NoReserve = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.BaseYesLiquidity = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.BaseNoLiquidity = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.FeeBps = binary.LittleEndian.Uint16(data[off:])
	off += 2
	p.Status = data[off]
	off += 1
	p.Bump = data[off]

	return p, nil
}

// DuelAccount mirrors the on-chain Duel account layout (§3, §4.3).
type DuelAccount struct {
	OnchainDuelID uint64
	Player1       solana.PublicKey
	Player2       *solana.PublicKey
	BetAmount     uint64
	Status        uint8 // 0 Pending, 1 Matched, 2 Active, 3 Resolved, 4 Cancelled, 5 Expired
	EntryPrice    uint64
	ExitPrice     *uint64
	Winner        *solana.PublicKey
	CreatedAt     int64
	StartedAt     *int64
	ResolvedAt    *int64
	Bump          uint8
}

// DeserializeDuel parses a Duel account's raw data, discriminator included.
func DeserializeDuel(data []byte) (*DuelAccount, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("invalid duel account: too short for discriminator")
	}
	data = data[8:]

	const minLen = 8 + 32 + 1 + 32 + 8 + 1 + 8 + 1 + 8 + 1 + 32 + 8 + 1 + 8 + 1 + 8 + 1
	if len(data) < minLen {
		return nil, fmt.Errorf("invalid duel account: expected at least %d bytes, got %d", minLen, len(data))
	}

	d := &DuelAccount{}
	off := 0

	d.OnchainDuelID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	d.Player1 = solana.PublicKeyFromBytes(data[off : off+32])
	off += 32

	hasPlayer2 := data[off] == 1
	off += 1
	if hasPlayer2 {
		p2 := solana.PublicKeyFromBytes(data[off : off+32])
		d.Player2 = &p2
	}
	off += 32

	d.BetAmount = binary.LittleEndian.Uint64(data[off:])
	off += 8

	d.Status = data[off]
	off += 1

	d.EntryPrice = binary.LittleEndian.Uint64(data[off:])
	off += 8

	hasExit := data[off] == 1
	off += 1
	if hasExit {
		ep := binary.LittleEndian.Uint64(data[off:])
		d.ExitPrice = &ep
	}
	off += 8

	hasWinner := data[off] == 1
	off += 1
	if hasWinner {
		w := solana.PublicKeyFromBytes(data[off : off+32])
		d.Winner = &w
	}
	off += 32

	d.CreatedAt = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8

	hasStarted := data[off] == 1
	off += 1
	if hasStarted {
		s := int64(binary.LittleEndian.Uint64(data[off:]))
		d.StartedAt = &s
	}
	off += 8

	hasResolved := data[off] == 1
	off += 1
	if hasResolved {
		r := int64(binary.LittleEndian.Uint64(data[off:]))
		d.ResolvedAt = &r
	}
	off += 8

	d.Bump = data[off]

	return d, nil
}
