package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
)

var (
	// Token2022ProgramID is the SPL Token-2022 (token extensions) program.
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// DefaultFeePayer sponsors transactions when no facilitator fee payer is known.
	DefaultFeePayer = solana.MustPublicKeyFromBase58("2wKupLR9q6wXYppw8Gr2NvWxKBUqm4PPJKkQfoxHDBg4")
)

// Compute budget defaults.
const (
	DefaultComputeUnitLimit uint32 = 200000
	DefaultComputeUnitPrice uint64 = 1 // microlamports
)

const createIdempotentDiscriminator = 1

// TransferParams describes one USDC transfer transaction.
type TransferParams struct {
	Owner        solana.PublicKey // sender wallet, transfer authority
	Recipient    solana.PublicKey // recipient wallet
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey // Token or Token-2022
	FeePayer     solana.PublicKey
	Amount       uint64 // atomic units
	Decimals     uint8

	// CreateRecipientATA adds an idempotent ATA creation paid by FeePayer.
	CreateRecipientATA bool

	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
}

// FindATA derives the associated token account of owner for mint under tokenProgram.
func FindATA(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{owner[:], tokenProgram[:], mint[:]},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}
	return addr, nil
}

// BuildInstructions returns the transfer instructions in order:
//  1. SetComputeUnitLimit
//  2. SetComputeUnitPrice
//  3. CreateIdempotent recipient ATA (only when requested)
//  4. TransferChecked
func BuildInstructions(p TransferParams) ([]solana.Instruction, error) {
	if !p.TokenProgram.Equals(solana.TokenProgramID) && !p.TokenProgram.Equals(Token2022ProgramID) {
		return nil, fmt.Errorf("unsupported token program %s", p.TokenProgram)
	}
	if p.Amount == 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}

	limit := p.ComputeUnitLimit
	if limit == 0 {
		limit = DefaultComputeUnitLimit
	}
	price := p.ComputeUnitPrice
	if price == 0 {
		price = DefaultComputeUnitPrice
	}

	source, err := FindATA(p.Owner, p.Mint, p.TokenProgram)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	destination, err := FindATA(p.Recipient, p.Mint, p.TokenProgram)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	instructions := make([]solana.Instruction, 0, 4)
	instructions = append(instructions,
		computebudget.NewSetComputeUnitLimitInstruction(limit).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(price).Build(),
	)

	if p.CreateRecipientATA {
		instructions = append(instructions, createIdempotentATA(p.FeePayer, destination, p.Recipient, p.Mint, p.TokenProgram))
	}

	transfer, err := transferChecked(p.TokenProgram, source, p.Mint, destination, p.Owner, p.Amount, p.Decimals)
	if err != nil {
		return nil, err
	}
	return append(instructions, transfer), nil
}

// createIdempotentATA succeeds even if the account already exists.
func createIdempotentATA(payer, ata, owner, mint, tokenProgram solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: tokenProgram, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		accounts,
		[]byte{createIdempotentDiscriminator},
	)
}

// transferChecked encodes with the SPL token layout, which Token-2022 shares,
// and re-targets the program id.
func transferChecked(program, source, mint, destination, owner solana.PublicKey, amount uint64, decimals uint8) (solana.Instruction, error) {
	inst := token.NewTransferCheckedInstruction(
		amount,
		decimals,
		source,
		mint,
		destination,
		owner,                // Sender is the transfer authority
		[]solana.PublicKey{}, // No multisig
	).Build()

	data, err := inst.Data()
	if err != nil {
		return nil, fmt.Errorf("encode transfer instruction: %w", err)
	}
	return solana.NewInstruction(program, inst.Accounts(), data), nil
}
