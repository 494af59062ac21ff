package auth

import (
	"golang.org/x/crypto/blake2b"

	"github.com/owlchat/koins/internal/ledger"
)

// AccountFor maps a token subject to its ledger identity. Subjects that are
// already hex account ids map to themselves; anything else, such as an
// application user id, is hashed with BLAKE2b-256.
func AccountFor(subject string) ledger.AccountID {
	if id, err := ledger.ParseAccountID(subject); err == nil {
		return id
	}
	return ledger.AccountID(blake2b.Sum256([]byte(subject)))
}
