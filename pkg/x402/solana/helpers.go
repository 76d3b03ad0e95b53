package solana

import (
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
)

// commitmentFromString converts a string to rpc.CommitmentType.
func commitmentFromString(value string) rpc.CommitmentType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "processed":
		return rpc.CommitmentProcessed
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "finalized", "finalised", "":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentFinalized
	}
}

// isAccountNotFoundError checks if the error indicates an account was not found.
// Some RPC providers report a missing account as an error string instead of a null value.
func isAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "account not found") ||
		strings.Contains(msg, "could not find account")
}

// defaultRPCURL returns the public RPC endpoint for a Solana network name.
func defaultRPCURL(network string) string {
	if strings.Contains(network, "devnet") {
		return rpc.DevNet_RPC
	}
	return rpc.MainNetBeta_RPC
}
