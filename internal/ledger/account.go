package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AccountIDSize is the byte length of an account identity.
const AccountIDSize = 32

// AccountID identifies a ledger participant. It is an opaque fixed-size value
// and can be used directly as a map key.
type AccountID [AccountIDSize]byte

// ParseAccountID decodes the 64 character hex form of an account, with or
// without a leading 0x.
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != hex.EncodedLen(AccountIDSize) {
		return AccountID{}, fmt.Errorf("account id must be %d hex characters", hex.EncodedLen(AccountIDSize))
	}
	var id AccountID
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return AccountID{}, fmt.Errorf("decode account id: %w", err)
	}
	return id, nil
}

// AccountIDFromBytes copies a raw 32 byte identity.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDSize {
		return id, fmt.Errorf("account id must be %d bytes, got %d", AccountIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether a is the all-zero identity.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}
