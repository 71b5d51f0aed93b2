package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CacheKey is a structured memoization key. Operation names the cache class
// (each class carries its own TTL), QueryHash fingerprints the query text,
// UserID is empty for results shareable across users, and Params folds in
// top-k/offset style knobs.
type CacheKey struct {
	Operation string
	QueryHash string
	UserID    string
	Params    string
}

func NewCacheKey(operation, query, userID string, params ...string) CacheKey {
	return CacheKey{
		Operation: operation,
		QueryHash: HashText(query),
		UserID:    userID,
		Params:    strings.Join(params, ","),
	}
}

func (k CacheKey) String() string {
	return k.Operation + "|" + k.QueryHash + "|" + k.UserID + "|" + k.Params
}

// HashText returns a short stable fingerprint of s for cache keys.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
