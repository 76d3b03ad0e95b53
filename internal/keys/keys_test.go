package keys

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

func TestParseSolanaKey_Base58Format(t *testing.T) {
	testKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("Failed to generate test key: %v", err)
	}

	parsed, err := ParseSolanaKey("  " + testKey.String() + "\n")
	if err != nil {
		t.Fatalf("Failed to parse base58 private key: %v", err)
	}
	if !parsed.PublicKey().Equals(testKey.PublicKey()) {
		t.Errorf("public key mismatch: want %s, got %s", testKey.PublicKey(), parsed.PublicKey())
	}
}

func TestParseSolanaKey_JSONArrayFormat(t *testing.T) {
	testKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("Failed to generate test key: %v", err)
	}

	parts := make([]string, len(testKey))
	for i, b := range testKey {
		parts[i] = fmt.Sprintf("%d", b)
	}
	arrayStr := "[" + strings.Join(parts, ", ") + "]"

	parsed, err := ParseSolanaKey(arrayStr)
	if err != nil {
		t.Fatalf("Failed to parse JSON array private key: %v", err)
	}
	if !parsed.PublicKey().Equals(testKey.PublicKey()) {
		t.Errorf("public key mismatch: want %s, got %s", testKey.PublicKey(), parsed.PublicKey())
	}
}

func TestParseSolanaKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"bad base58", "0OIl"},
		{"short array", "[1,2,3]"},
		{"out of range", "[" + strings.Repeat("256,", 63) + "256]"},
		{"not json", "[1,2,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSolanaKey(tt.in); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseEVMKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	hexKey := fmt.Sprintf("%x", crypto.FromECDSA(key))

	for _, in := range []string{hexKey, "0x" + hexKey} {
		parsed, err := ParseEVMKey(in)
		if err != nil {
			t.Fatalf("ParseEVMKey(%q): %v", in, err)
		}
		if crypto.PubkeyToAddress(parsed.PublicKey) != crypto.PubkeyToAddress(key.PublicKey) {
			t.Error("address mismatch")
		}
	}

	if _, err := ParseEVMKey("0xnothex"); err == nil {
		t.Error("expected error for invalid hex")
	}
	if _, err := ParseEVMKey(""); err == nil {
		t.Error("expected error for empty key")
	}
}
