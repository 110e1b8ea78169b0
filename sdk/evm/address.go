package evm

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// addressHexLength is the length of a textual address including the 0x prefix.
	addressHexLength = 2 + 2*common.AddressLength

	compressedPublicKeyLength   = 33
	uncompressedPublicKeyLength = 65
)

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidChecksum = errors.New("invalid address checksum")
)

// ParseAddress parses a textual ledger address. The address must carry the 0x prefix and 40 hex
// digits. All-lowercase and all-uppercase digits are accepted as is, mixed case digits must
// carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	if len(s) != addressHexLength || !has0xPrefix(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	mixed, err := common.NewMixedcaseAddressFromString(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	digits := s[2:]
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) && !mixed.ValidChecksum() {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidChecksum, s)
	}

	return mixed.Address(), nil
}

// FormatAddress returns the EIP-55 checksummed form of the address.
func FormatAddress(addr common.Address) string {
	return addr.Hex()
}

// ParsePublicKey parses a SEC1 encoded secp256k1 public key in either compressed (33 bytes) or
// uncompressed (65 bytes) form.
func ParsePublicKey(b []byte) (*ecdsa.PublicKey, error) {
	switch len(b) {
	case compressedPublicKeyLength:
		return crypto.DecompressPubkey(b)
	case uncompressedPublicKeyLength:
		return crypto.UnmarshalPubkey(b)
	default:
		return nil, fmt.Errorf("invalid public key length: %d", len(b))
	}
}

// AddressFromPublicKey derives the ledger address of a SEC1 encoded public key: the low 20 bytes
// of the keccak256 hash of the uncompressed point without its 0x04 prefix.
func AddressFromPublicKey(b []byte) (common.Address, error) {
	pub, err := ParsePublicKey(b)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to parse public key: %w", err)
	}

	point := crypto.FromECDSAPub(pub)

	return common.BytesToAddress(crypto.Keccak256(point[1:])[12:]), nil
}

// EncodeHex returns the 0x prefixed lowercase hex encoding of b.
func EncodeHex(b []byte) string {
	return hexutil.Encode(b)
}

// DecodeHex decodes a 0x prefixed hex string. An empty "0x" decodes to an empty slice.
func DecodeHex(s string) ([]byte, error) {
	return hexutil.Decode(s)
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
