package onchain

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Each builder lays out instruction data exactly per SPEC_FULL §6:
// an 8-byte discriminator followed by little-endian encoded arguments.

// BuildInitializePool builds the InitializePool(fee_bps, initial_yes, initial_no) instruction.
func BuildInitializePool(programID, authority, pool, yesVault, noVault, yesMint, noMint solana.PublicKey, feeBps uint16, initialYes, initialNo uint64) solana.Instruction {
	data := make([]byte, 8+2+8+8)
	copy(data[0:8], discInitializePool[:])
	binary.LittleEndian.PutUint16(data[8:10], feeBps)
	binary.LittleEndian.PutUint64(data[10:18], initialYes)
	binary.LittleEndian.PutUint64(data[18:26], initialNo)

	accounts := solana.AccountMetaSlice{
		solana.Meta(pool).WRITE(),
		solana.Meta(yesVault).WRITE(),
		solana.Meta(noVault).WRITE(),
		solana.Meta(yesMint),
		solana.Meta(noMint),
		solana.Meta(authority).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
	}
	return solana.NewInstruction(programID, accounts, data)
}

// BuildSwap builds the Swap(trade_type, input_amount, minimum_output) instruction.
func BuildSwap(programID, pool, yesVault, noVault, trader solana.PublicKey, tradeType uint8, inputAmount, minimumOutput uint64) solana.Instruction {
	data := make([]byte, 8+1+8+8)
	copy(data[0:8], discSwap[:])
	data[8] = tradeType
	binary.LittleEndian.PutUint64(data[9:17], inputAmount)
	binary.LittleEndian.PutUint64(data[17:25], minimumOutput)

	accounts := solana.AccountMetaSlice{
		solana.Meta(pool).WRITE(),
		solana.Meta(yesVault).WRITE(),
		solana.Meta(noVault).WRITE(),
		solana.Meta(trader).WRITE().SIGNER(),
		solana.Meta(solana.TokenProgramID),
	}
	return solana.NewInstruction(programID, accounts, data)
}

// BuildClosePool builds the ClosePool() instruction.
func BuildClosePool(programID, pool, yesVault, noVault, authority solana.PublicKey) solana.Instruction {
	data := make([]byte, 8)
	copy(data, discClosePool[:])

	accounts := solana.AccountMetaSlice{
		solana.Meta(pool).WRITE(),
		solana.Meta(yesVault).WRITE(),
		solana.Meta(noVault).WRITE(),
		solana.Meta(authority).WRITE().SIGNER(),
		solana.Meta(solana.TokenProgramID),
	}
	return solana.NewInstruction(programID, accounts, data)
}

// BuildCreateDuel builds the CreateDuel(bet, direction, market_id, currency) instruction.
func BuildCreateDuel(programID, duel, player1 solana.PublicKey, bet uint64, direction uint8, marketID uint16, currency uint8) solana.Instruction {
	data := make([]byte, 8+8+1+2+1)
	copy(data[0:8], discCreateDuel[:])
	binary.LittleEndian.PutUint64(data[8:16], bet)
	data[16] = direction
	binary.LittleEndian.PutUint16(data[17:19], marketID)
	data[19] = currency

	accounts := solana.AccountMetaSlice{
		solana.Meta(duel).WRITE(),
		solana.Meta(player1).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(programID, accounts, data)
}

// BuildJoinDuel builds the JoinDuel(direction) instruction.
func BuildJoinDuel(programID, duel, player2 solana.PublicKey, direction uint8) solana.Instruction {
	data := make([]byte, 8+1)
	copy(data[0:8], discJoinDuel[:])
	data[8] = direction

	accounts := solana.AccountMetaSlice{
		solana.Meta(duel).WRITE(),
		solana.Meta(player2).WRITE().SIGNER(),
	}
	return solana.NewInstruction(programID, accounts, data)
}

// BuildStartDuel builds the StartDuel(entry_price) instruction.
func BuildStartDuel(programID, duel, authority solana.PublicKey, entryPrice uint64) solana.Instruction {
	data := make([]byte, 8+8)
	copy(data[0:8], discStartDuel[:])
	binary.LittleEndian.PutUint64(data[8:16], entryPrice)

	accounts := solana.AccountMetaSlice{
		solana.Meta(duel).WRITE(),
		solana.Meta(authority).SIGNER(),
	}
	return solana.NewInstruction(programID, accounts, data)
}

// BuildResolveDuel builds the ResolveDuel(exit_price) instruction.
func BuildResolveDuel(programID, duel, player1, player2, feeCollector, authority solana.PublicKey, exitPrice uint64) solana.Instruction {
	data := make([]byte, 8+8)
	copy(data[0:8], discResolveDuel[:])
	binary.LittleEndian.PutUint64(data[8:16], exitPrice)

	accounts := solana.AccountMetaSlice{
		solana.Meta(duel).WRITE(),
		solana.Meta(player1).WRITE(),
		solana.Meta(player2).WRITE(),
		solana.Meta(feeCollector).WRITE(),
		solana.Meta(authority).SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(programID, accounts, data)
}

// BuildCancelDuel builds the CancelDuel() instruction.
func BuildCancelDuel(programID, duel, player1, vault, authority solana.PublicKey) solana.Instruction {
	data := make([]byte, 8)
	copy(data, discCancelDuel[:])

	accounts := solana.AccountMetaSlice{
		solana.Meta(duel).WRITE(),
		solana.Meta(player1).WRITE(),
		solana.Meta(vault).WRITE(),
		solana.Meta(authority).WRITE().SIGNER(),
		solana.Meta(solana.TokenProgramID),
	}
	return solana.NewInstruction(programID, accounts, data)
}
