package partition

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexassist/legal-rag/internal/core/ports"
)

const namePrefix = "user_"

// Guard derives per-user partition names and validates access against them.
// The derivation is the single source of truth: a user can only ever reach
// the partition computed from their own id, so validation reduces to
// re-deriving and comparing.
type Guard struct {
	logger *slog.Logger
}

var _ ports.PartitionGuard = (*Guard)(nil)

func NewGuard(logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{logger: logger}
}

// NameFor maps a user id to its partition name, user_<32 hex chars>.
// The dashless hex form keeps the name valid for collection naming rules.
func (g *Guard) NameFor(userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("parse user id: %w", err)
	}
	return namePrefix + hex.EncodeToString(id[:]), nil
}

// ValidateAccess reports whether userID may read partition. Any mismatch or
// malformed id denies.
func (g *Guard) ValidateAccess(_ context.Context, userID, partition string) bool {
	expected, err := g.NameFor(userID)
	if err != nil {
		g.logger.Warn("partition access denied: malformed user id", "user_id", userID)
		return false
	}
	if partition != expected {
		g.logger.Warn("partition access denied: name mismatch",
			"user_id", userID,
			"requested", partition,
		)
		return false
	}
	return true
}
