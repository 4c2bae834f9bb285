package infra

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DeriveKey canonicalizes an operation's logical name and its argument
// values into one deterministic identity string. Arguments are JSON-encoded
// in order, so the key is order- and type-sensitive, and two calls with
// equivalent arguments hash identically regardless of call order in the
// process.
func DeriveKey(op string, args ...any) string {
	payload, err := json.Marshal(struct {
		Op   string `json:"op"`
		Args []any  `json:"args"`
	}{Op: op, Args: args})
	if err != nil {
		// Unmarshalable argument (channel, func). Fall back to the Go
		// rendering; still deterministic for a given call site.
		payload = []byte(fmt.Sprintf("%s:%#v", op, args))
	}
	sum := sha256.Sum256(payload)
	return op + ":" + hex.EncodeToString(sum[:])
}
