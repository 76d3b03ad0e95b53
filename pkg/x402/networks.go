package x402

import (
	"fmt"
	"math/big"
	"strings"
)

// Family groups networks that share a signing scheme.
type Family int

const (
	FamilyEVM Family = iota + 1
	FamilySolana
)

func (f Family) String() string {
	switch f {
	case FamilyEVM:
		return "evm"
	case FamilySolana:
		return "solana"
	default:
		return "unknown"
	}
}

// Network is one of the supported settlement networks. The set is closed: the
// only valid values are the package variables below, and the zero value means
// "not specified".
type Network struct {
	name    string
	family  Family
	chainID int64  // EVM only
	usdc    string // ERC-20 contract (EVM) or SPL mint (Solana)
	testnet bool

	// EIP-712 domain of the USDC contract (EVM only)
	tokenName    string
	tokenVersion string
}

var (
	Base = Network{
		name:         "base",
		family:       FamilyEVM,
		chainID:      8453,
		usdc:         "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		tokenName:    "USD Coin",
		tokenVersion: "2",
	}
	BaseSepolia = Network{
		name:         "base-sepolia",
		family:       FamilyEVM,
		chainID:      84532,
		usdc:         "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		testnet:      true,
		tokenName:    "USDC",
		tokenVersion: "2",
	}
	Solana = Network{
		name:   "solana",
		family: FamilySolana,
		usdc:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	}
	SolanaDevnet = Network{
		name:    "solana-devnet",
		family:  FamilySolana,
		usdc:    "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		testnet: true,
	}
)

// Networks lists every supported network.
var Networks = []Network{Base, BaseSepolia, Solana, SolanaDevnet}

var networkAliases = map[string]Network{
	"base":           Base,
	"base-mainnet":   Base,
	"eip155:8453":    Base,
	"base-sepolia":   BaseSepolia,
	"eip155:84532":   BaseSepolia,
	"solana":         Solana,
	"solana-mainnet": Solana,
	"mainnet-beta":   Solana,
	"solana-devnet":  SolanaDevnet,
	"devnet":         SolanaDevnet,
}

// ParseNetwork resolves a network name (case-insensitive, common aliases accepted).
func ParseNetwork(name string) (Network, error) {
	n, ok := networkAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("x402: unsupported network %q", name)
	}
	return n, nil
}

// MustParseNetwork is ParseNetwork for constants and tests.
func MustParseNetwork(name string) Network {
	n, err := ParseNetwork(name)
	if err != nil {
		panic(err)
	}
	return n
}

// Name returns the canonical wire name ("base", "solana-devnet").
func (n Network) Name() string { return n.name }

func (n Network) String() string {
	if n.IsZero() {
		return "unspecified"
	}
	return n.name
}

// Family returns the signing family of the network.
func (n Network) Family() Family { return n.family }

// IsZero reports whether the network is unspecified.
func (n Network) IsZero() bool { return n.name == "" }

// IsEVM reports whether payments on n are EIP-3009 authorizations.
func (n Network) IsEVM() bool { return n.family == FamilyEVM }

// IsTestnet reports whether n settles test tokens.
func (n Network) IsTestnet() bool { return n.testnet }

// IsSolana reports whether payments on n are partially signed Solana transactions.
func (n Network) IsSolana() bool { return n.family == FamilySolana }

// ChainID returns the EVM chain id, or nil for non-EVM networks.
func (n Network) ChainID() *big.Int {
	if n.family != FamilyEVM {
		return nil
	}
	return big.NewInt(n.chainID)
}

// USDCAddress returns the USDC contract (EVM) or mint (Solana).
func (n Network) USDCAddress() string { return n.usdc }

// TokenDomain returns the EIP-712 domain name and version of the USDC contract.
func (n Network) TokenDomain() (name, version string) { return n.tokenName, n.tokenVersion }

// MarshalText encodes the canonical name.
func (n Network) MarshalText() ([]byte, error) {
	return []byte(n.name), nil
}

// UnmarshalText accepts any name ParseNetwork accepts; empty means unspecified.
func (n *Network) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*n = Network{}
		return nil
	}
	parsed, err := ParseNetwork(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
