package selection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stockroom-dev/stockroom/internal/models"
)

func candidates(n int) []models.Product {
	out := make([]models.Product, n)
	for i := range out {
		out[i] = models.Product{ID: i + 1, Name: fmt.Sprintf("p%d", i+1)}
	}
	return out
}

func TestChooseResolves(t *testing.T) {
	session := New(candidates(3), time.Minute)

	result, ok := session.Choose(2)
	if !ok {
		t.Fatal("Expected first choice to be honored")
	}
	if result.Outcome != OutcomeResolved {
		t.Fatalf("Expected resolved, got %s", result.Outcome)
	}
	if result.Product.ID != 2 {
		t.Errorf("Expected product 2, got %d", result.Product.ID)
	}
}

func TestSecondChoiceIsNoOp(t *testing.T) {
	session := New(candidates(3), time.Minute)

	if _, ok := session.Choose(2); !ok {
		t.Fatal("Expected first choice to be honored")
	}
	if _, ok := session.Choose(3); ok {
		t.Error("Expected second choice to be a no-op")
	}
}

func TestGhostIDResolvesNotFound(t *testing.T) {
	session := New(candidates(3), time.Minute)

	result, ok := session.Choose(99)
	if !ok {
		t.Fatal("Expected choice to consume the session")
	}
	if result.Outcome != OutcomeNotFound {
		t.Errorf("Expected not_found, got %s", result.Outcome)
	}

	// The session terminated; nothing further is honored.
	if _, ok := session.Choose(1); ok {
		t.Error("Expected session to be consumed after a ghost choice")
	}
}

func TestDeadlineWinsTies(t *testing.T) {
	session := New(candidates(3), time.Minute)
	deadline := session.deadline
	session.now = func() time.Time { return deadline }

	result, ok := session.Choose(1)
	if !ok {
		t.Fatal("Expected choice to consume the session")
	}
	if result.Outcome != OutcomeExpired {
		t.Errorf("Expected expired at the deadline, got %s", result.Outcome)
	}
}

func TestExpiredBeforeChoice(t *testing.T) {
	session := New(candidates(3), time.Minute)
	session.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	result, ok := session.Choose(1)
	if !ok {
		t.Fatal("Expected choice to consume the session")
	}
	if result.Outcome != OutcomeExpired {
		t.Errorf("Expected expired, got %s", result.Outcome)
	}
}

func TestTruncationCap(t *testing.T) {
	session := New(candidates(30), time.Minute)

	offered := session.Candidates()
	if len(offered) != MaxCandidates {
		t.Fatalf("Expected %d candidates, got %d", MaxCandidates, len(offered))
	}
	if offered[0].ID != 1 || offered[24].ID != 25 {
		t.Errorf("Expected the first 25 candidates, got ids %d..%d", offered[0].ID, offered[24].ID)
	}

	// Ids beyond the cap were never offered.
	result, ok := session.Choose(26)
	if !ok || result.Outcome != OutcomeNotFound {
		t.Errorf("Expected not_found for a truncated id, got %v (%v)", result.Outcome, ok)
	}
}

func TestStorePurge(t *testing.T) {
	store := NewStore()

	fresh := New(candidates(1), time.Minute)
	stale := New(candidates(1), time.Minute)
	stale.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	store.Set("fresh", fresh)
	store.Set("stale", stale)

	if purged := store.Purge(); purged != 1 {
		t.Fatalf("Expected 1 purged session, got %d", purged)
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Error("Fresh session must survive the purge")
	}
	if _, ok := store.Get("stale"); ok {
		t.Error("Stale session must be dropped by the purge")
	}

	// The purge consumed the stale session; a late choice is a no-op.
	if _, ok := stale.Choose(1); ok {
		t.Error("Expected purged session to reject a late choice")
	}
}
