package x402

import (
	"regexp"
	"strings"
)

var (
	evmAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	base58Pattern     = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// nameServiceSuffixes are human-readable names that resolve to EVM addresses.
var nameServiceSuffixes = []string{".eth", ".base.eth", ".cb.id"}

// DetectNetwork infers the destination network from the shape of an address.
// Hex addresses resolve to an EVM network, base58 strings of plausible length
// to a Solana network, and name-service names to an EVM network. When the
// family matches the fallback the fallback wins, so a devnet client keeps
// resolving to devnet. A testnet fallback of the other family picks that
// family's testnet. Anything unrecognized resolves to fallback.
func DetectNetwork(address string, fallback Network) Network {
	addr := strings.TrimSpace(address)

	switch {
	case evmAddressPattern.MatchString(addr):
		return preferFamily(FamilyEVM, fallback, Base, BaseSepolia)
	case base58Pattern.MatchString(addr):
		return preferFamily(FamilySolana, fallback, Solana, SolanaDevnet)
	case hasNameServiceSuffix(addr):
		return preferFamily(FamilyEVM, fallback, Base, BaseSepolia)
	default:
		return fallback
	}
}

func preferFamily(family Family, fallback, mainnet, testnet Network) Network {
	switch {
	case fallback.Family() == family:
		return fallback
	case fallback.IsTestnet():
		return testnet
	default:
		return mainnet
	}
}

func hasNameServiceSuffix(addr string) bool {
	lower := strings.ToLower(addr)
	for _, suffix := range nameServiceSuffixes {
		if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix) {
			return true
		}
	}
	return false
}
