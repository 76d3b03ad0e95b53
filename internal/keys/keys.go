// Package keys parses wallet key material from configuration strings.
package keys

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// ParseSolanaKey parses a Solana private key from either base58 or JSON array format.
// Supported formats:
//   - Base58: "5Kd7..." (standard format from solana-keygen)
//   - JSON array: "[1,2,3,...,64]" (64 bytes, keypair file format)
func ParseSolanaKey(keyStr string) (solana.PrivateKey, error) {
	keyStr = strings.TrimSpace(keyStr)
	if keyStr == "" {
		return nil, fmt.Errorf("solana private key is empty")
	}

	if !strings.HasPrefix(keyStr, "[") {
		key, err := solana.PrivateKeyFromBase58(keyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid base58 private key: %w", err)
		}
		if len(key) != 64 {
			return nil, fmt.Errorf("solana private key must be 64 bytes, got %d", len(key))
		}
		return key, nil
	}

	var raw []int
	if err := json.Unmarshal([]byte(keyStr), &raw); err != nil {
		return nil, fmt.Errorf("private key array must be in JSON format: [1,2,3,...]: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("private key must be a 64-byte array, got %d bytes", len(raw))
	}

	key := make(solana.PrivateKey, 64)
	for i, v := range raw {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("invalid byte value at position %d: %d (must be 0-255)", i, v)
		}
		key[i] = byte(v)
	}
	return key, nil
}

// ParseEVMKey parses a secp256k1 private key from hex, with or without 0x.
func ParseEVMKey(keyStr string) (*ecdsa.PrivateKey, error) {
	keyStr = strings.TrimPrefix(strings.TrimSpace(keyStr), "0x")
	if keyStr == "" {
		return nil, fmt.Errorf("evm private key is empty")
	}
	key, err := crypto.HexToECDSA(keyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid evm private key: %w", err)
	}
	return key, nil
}
