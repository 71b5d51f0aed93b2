package partition

import (
	"context"
	"strings"
	"testing"
)

func TestNameFor(t *testing.T) {
	g := NewGuard(nil)

	name, err := g.NameFor("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	if err != nil {
		t.Fatalf("NameFor() error = %v", err)
	}
	if name != "user_7c9e6679742540de944be07fc1f90ae7" {
		t.Fatalf("name = %s", name)
	}
	if strings.Contains(name, "-") {
		t.Fatalf("partition name must not contain dashes: %s", name)
	}
}

func TestNameForInvalidID(t *testing.T) {
	g := NewGuard(nil)
	for _, bad := range []string{"", "abc", "7c9e6679-7425-40de-944b", "user_x"} {
		if _, err := g.NameFor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestValidateAccess(t *testing.T) {
	g := NewGuard(nil)
	ctx := context.Background()
	userID := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	if !g.ValidateAccess(ctx, userID, "user_7c9e6679742540de944be07fc1f90ae7") {
		t.Fatalf("own partition denied")
	}
	if g.ValidateAccess(ctx, userID, "user_00000000000000000000000000000000") {
		t.Fatalf("foreign partition allowed")
	}
	if g.ValidateAccess(ctx, "not-a-uuid", "user_7c9e6679742540de944be07fc1f90ae7") {
		t.Fatalf("malformed user id allowed")
	}
}
