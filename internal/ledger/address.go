package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the fixed width of account addresses in bytes.
const AddressLength = 20

// Address identifies a ledger account. Addresses are opaque to the ledger;
// account records are created implicitly the first time an address is touched
// and are never deleted.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address. It is a valid account like any other.
var ZeroAddress Address

// ParseAddress decodes a hex address with an optional 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return a, fmt.Errorf("%w: %s", ErrInvalidAddress, s)
	}
	if len(raw) != AddressLength {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressLength, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// String renders the address as 0x-prefixed lowercase hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}
