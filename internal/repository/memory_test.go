package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cosmetics-assistant/internal/domain"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewMemoryStore(WithClock(clock.Now))
}

func analysis(name string) domain.IngredientAnalysis {
	return domain.IngredientAnalysis{Name: name, Status: domain.StatusSafe, Description: name + " description"}
}

func TestInsertIngredient_AssignsIDAndTimestamps(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.InsertIngredient(context.Background(), analysis("Niacinamide"))
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())
	require.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	require.Equal(t, "Niacinamide", rec.Name)
}

func TestInsertIngredient_InvalidStatusDefaultsToCaution(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.InsertIngredient(context.Background(), domain.IngredientAnalysis{Name: "Mystery", Status: "maybe"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCaution, rec.Status)
}

func TestFindIngredientByName_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	stored, err := s.InsertIngredient(context.Background(), analysis("Niacinamide"))
	require.NoError(t, err)

	upper, ok, err := s.FindIngredientByName(context.Background(), "NIACINAMIDE")
	require.NoError(t, err)
	require.True(t, ok)
	lower, ok, err := s.FindIngredientByName(context.Background(), "niacinamide")
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, stored.ID, upper.ID)
	require.Equal(t, upper, lower)
}

func TestFindIngredientByName_Miss(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.FindIngredientByName(context.Background(), "Retinol")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.FindIngredientByName(context.Background(), "   ")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindIngredientByName_FirstMatchWins(t *testing.T) {
	s := newTestStore(t)
	first, err := s.InsertIngredient(context.Background(), analysis("Retinol"))
	require.NoError(t, err)
	_, err = s.InsertIngredient(context.Background(), analysis("retinol"))
	require.NoError(t, err)

	got, ok, err := s.FindIngredientByName(context.Background(), "RETINOL")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first.ID, got.ID)
}

func TestUpsertIngredient_ReplacesByName(t *testing.T) {
	s := newTestStore(t)
	first, err := s.UpsertIngredient(context.Background(), analysis("Retinol"))
	require.NoError(t, err)

	next := analysis("RETINOL")
	next.Status = domain.StatusCaution
	second, err := s.UpsertIngredient(context.Background(), next)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
	require.Equal(t, domain.StatusCaution, second.Status)

	all, err := s.SearchIngredients(context.Background(), "retinol")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSearchIngredients_CapsAtTenInInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 15; i++ {
		_, err := s.InsertIngredient(context.Background(), analysis(fmt.Sprintf("Acid %02d", i)))
		require.NoError(t, err)
	}
	_, err := s.InsertIngredient(context.Background(), analysis("Glycerin"))
	require.NoError(t, err)

	got, err := s.SearchIngredients(context.Background(), "ACID")
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, rec := range got {
		require.Equal(t, fmt.Sprintf("Acid %02d", i), rec.Name)
	}
}

func TestSearchIngredients_MatchesScientificName(t *testing.T) {
	s := newTestStore(t)
	a := analysis("Vitamin C")
	a.ScientificName = "L-Ascorbic Acid"
	_, err := s.InsertIngredient(context.Background(), a)
	require.NoError(t, err)

	got, err := s.SearchIngredients(context.Background(), "ascorbic")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Vitamin C", got[0].Name)
}

func TestUpdateIngredient_MergesAndRefreshesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	a := analysis("Parabens")
	a.CommonUses = []string{"preservative"}
	rec, err := s.InsertIngredient(context.Background(), a)
	require.NoError(t, err)

	avoid := domain.StatusAvoid
	notes := "endocrine concerns"
	updated, ok, err := s.UpdateIngredient(context.Background(), rec.ID, domain.IngredientUpdate{Status: &avoid, SafetyNotes: &notes})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec.ID, updated.ID)
	require.Equal(t, domain.StatusAvoid, updated.Status)
	require.Equal(t, "endocrine concerns", updated.SafetyNotes)
	require.Equal(t, rec.Description, updated.Description)
	require.Equal(t, []string{"preservative"}, updated.CommonUses)
	require.True(t, updated.UpdatedAt.After(rec.UpdatedAt))
	require.Equal(t, rec.CreatedAt, updated.CreatedAt)
}

func TestUpdateIngredient_UnknownID(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.UpdateIngredient(context.Background(), "missing", domain.IngredientUpdate{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateIngredient_InvalidStatusFallsBackToCaution(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.InsertIngredient(context.Background(), analysis("X"))
	require.NoError(t, err)

	maybe := domain.Status("maybe")
	updated, ok, err := s.UpdateIngredient(context.Background(), rec.ID, domain.IngredientUpdate{Status: &maybe})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.StatusCaution, updated.Status)

	got, ok, err := s.FindIngredientByName(context.Background(), "x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.StatusCaution, got.Status)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := newTestStore(t)
	a := analysis("Squalane")
	a.Alternatives = []string{"jojoba oil"}
	rec, err := s.InsertIngredient(context.Background(), a)
	require.NoError(t, err)
	rec.Alternatives[0] = "mutated"

	got, ok, err := s.FindIngredientByName(context.Background(), "squalane")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"jojoba oil"}, got.Alternatives)
}

func TestFindConversationsByUser_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	for _, q := range []string{"t1", "t2", "t3"} {
		_, err := s.InsertConversation(context.Background(), domain.Conversation{UserID: "user-1", Question: q})
		require.NoError(t, err)
	}
	_, err := s.InsertConversation(context.Background(), domain.Conversation{UserID: "user-2", Question: "other"})
	require.NoError(t, err)

	got, err := s.FindConversationsByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "t3", got[0].Question)
	require.Equal(t, "t2", got[1].Question)
	require.Equal(t, "t1", got[2].Question)
	require.NotEmpty(t, got[0].ID)
}

func TestFindConversationsByUser_EqualTimestampsNewestInsertFirst(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithClock(func() time.Time { return fixed }))
	for _, q := range []string{"a", "b"} {
		_, err := s.InsertConversation(context.Background(), domain.Conversation{UserID: "u", Question: q})
		require.NoError(t, err)
	}
	got, err := s.FindConversationsByUser(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, "b", got[0].Question)
	require.Equal(t, "a", got[1].Question)
}

func TestInsertConversation_RequiresUser(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertConversation(context.Background(), domain.Conversation{Question: "q"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "user id is required")
}

func TestConversationHistoryIsNotSharedWithCallers(t *testing.T) {
	s := newTestStore(t)
	safe := domain.StatusSafe
	inserted, err := s.InsertConversation(context.Background(), domain.Conversation{UserID: "u", Question: "q", Status: &safe})
	require.NoError(t, err)
	*inserted.Status = domain.StatusCaution

	got, err := s.FindConversationsByUser(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.StatusSafe, *got[0].Status)
	*got[0].Status = domain.StatusAvoid

	again, err := s.FindConversationsByUser(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, domain.StatusSafe, *again[0].Status)
}

func TestConcurrentInsertsAndUpdates(t *testing.T) {
	s := NewMemoryStore()
	rec, err := s.InsertIngredient(context.Background(), analysis("Shared"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s.InsertIngredient(context.Background(), analysis(fmt.Sprintf("Item %d", i)))
		}(i)
		go func(i int) {
			defer wg.Done()
			notes := fmt.Sprintf("note %d", i)
			_, _, _ = s.UpdateIngredient(context.Background(), rec.ID, domain.IngredientUpdate{SafetyNotes: &notes})
		}(i)
	}
	wg.Wait()

	s.ingMu.RLock()
	defer s.ingMu.RUnlock()
	require.Len(t, s.ingredients, 51)
}
