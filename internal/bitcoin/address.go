package bitcoin

import "regexp"

// P2PKH/P2SH: leading 1 or 3 and 26-33 base58 characters.
var (
	addressRe      = regexp.MustCompile(`[13][a-km-zA-HJ-NP-Z1-9]{26,33}$`)
	exactAddressRe = regexp.MustCompile(`^[13][a-km-zA-HJ-NP-Z1-9]{26,33}$`)
)

// IsWalletAddress reports whether token looks like a wallet address rather
// than a phone number.
func IsWalletAddress(token string) bool {
	return addressRe.MatchString(token)
}

// IsExactAddress is IsWalletAddress over the whole token. IsWalletAddress only
// anchors the end, so "junk1BoatSLR..." still classifies as an address.
func IsExactAddress(token string) bool {
	return exactAddressRe.MatchString(token)
}
