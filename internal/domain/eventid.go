package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// EventID derives the deterministic, collision-resistant key every audit
// table (Event, Deposit, Redemption, FeeTransfer, Signal) upserts by:
// hash(transaction_hash, log_index). Keccak256 is used rather than a
// generic hash because it is already a required dependency for ABI/topic
// work and keeps the id derivation on the same primitive the chain itself
// uses.
func EventID(transactionHash string, logIndex int64) string {
	h := crypto.Keccak256([]byte(strings.ToLower(transactionHash) + ":" + strconv.FormatInt(logIndex, 10)))
	return "0x" + hex.EncodeToString(h)
}

// NormalizeAddress lowercases an address and ensures a 0x prefix, per the
// wire-format rule that every account address is rendered lowercased.
func NormalizeAddress(addr string) string {
	a := strings.ToLower(strings.TrimSpace(addr))
	if !strings.HasPrefix(a, "0x") {
		a = "0x" + a
	}
	return a
}

// IsValidAddress reports whether s is a syntactically valid 20-byte
// lowercased hex address with 0x prefix.
func IsValidAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	body := s[2:]
	if len(body) != 40 {
		return false
	}
	if body != strings.ToLower(body) {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}

// ShortID renders a short display label for an address or numeric id, e.g.
// "0xaaaa…bbbb", used as an Account's default label before resolution.
func ShortID(s string) string {
	if len(s) <= 10 {
		return s
	}
	return fmt.Sprintf("%s…%s", s[:6], s[len(s)-4:])
}
