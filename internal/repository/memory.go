package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cosmetics-assistant/internal/domain"
)

const searchLimit = 10

// IngredientReadWriter defines the ingredient operations consumed by the classifier.
type IngredientReadWriter interface {
	InsertIngredient(ctx context.Context, a domain.IngredientAnalysis) (domain.Ingredient, error)
	UpsertIngredient(ctx context.Context, a domain.IngredientAnalysis) (domain.Ingredient, error)
	FindIngredientByName(ctx context.Context, name string) (domain.Ingredient, bool, error)
	SearchIngredients(ctx context.Context, query string) ([]domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, id string, u domain.IngredientUpdate) (domain.Ingredient, bool, error)
}

// ConversationReadWriter defines the conversation history operations.
type ConversationReadWriter interface {
	InsertConversation(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	FindConversationsByUser(ctx context.Context, userID string) ([]domain.Conversation, error)
}

// MemoryStore keeps ingredient and conversation records for the lifetime of
// the process. Each collection has its own lock; records are copied on the
// way in and out.
type MemoryStore struct {
	now   func() time.Time
	newID func() string

	ingMu       sync.RWMutex
	ingredients []domain.Ingredient

	convMu        sync.RWMutex
	conversations []domain.Conversation
}

type Option func(*MemoryStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the record id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *MemoryStore) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// InsertIngredient appends a new record. Duplicate names are allowed here.
func (s *MemoryStore) InsertIngredient(_ context.Context, a domain.IngredientAnalysis) (domain.Ingredient, error) {
	s.ingMu.Lock()
	defer s.ingMu.Unlock()
	return s.appendIngredientLocked(a), nil
}

func (s *MemoryStore) appendIngredientLocked(a domain.IngredientAnalysis) domain.Ingredient {
	if !a.Status.Valid() {
		a.Status = domain.StatusCaution
	}
	now := s.now()
	rec := domain.Ingredient{
		ID:                 s.newID(),
		IngredientAnalysis: a.Clone(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.ingredients = append(s.ingredients, rec)
	return rec.Clone()
}

// UpsertIngredient treats the normalized name as a uniqueness key: the first
// record with that name is overwritten in place, keeping its id and creation
// time. Otherwise the analysis is appended.
func (s *MemoryStore) UpsertIngredient(_ context.Context, a domain.IngredientAnalysis) (domain.Ingredient, error) {
	s.ingMu.Lock()
	defer s.ingMu.Unlock()

	key := normalizeName(a.Name)
	for i := range s.ingredients {
		if normalizeName(s.ingredients[i].Name) != key {
			continue
		}
		if !a.Status.Valid() {
			a.Status = domain.StatusCaution
		}
		s.ingredients[i].IngredientAnalysis = a.Clone()
		s.ingredients[i].UpdatedAt = s.now()
		return s.ingredients[i].Clone(), nil
	}
	return s.appendIngredientLocked(a), nil
}

// FindIngredientByName returns the first record whose name matches
// case-insensitively, in insertion order.
func (s *MemoryStore) FindIngredientByName(_ context.Context, name string) (domain.Ingredient, bool, error) {
	key := normalizeName(name)
	if key == "" {
		return domain.Ingredient{}, false, nil
	}

	s.ingMu.RLock()
	defer s.ingMu.RUnlock()
	for _, rec := range s.ingredients {
		if normalizeName(rec.Name) == key {
			return rec.Clone(), true, nil
		}
	}
	return domain.Ingredient{}, false, nil
}

// SearchIngredients matches query as a case-insensitive substring of the name
// or scientific name. At most ten records are returned, in insertion order.
func (s *MemoryStore) SearchIngredients(_ context.Context, query string) ([]domain.Ingredient, error) {
	term := normalizeName(query)

	s.ingMu.RLock()
	defer s.ingMu.RUnlock()

	out := make([]domain.Ingredient, 0, searchLimit)
	for _, rec := range s.ingredients {
		if len(out) == searchLimit {
			break
		}
		if strings.Contains(strings.ToLower(rec.Name), term) ||
			(rec.ScientificName != "" && strings.Contains(strings.ToLower(rec.ScientificName), term)) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// UpdateIngredient merges u into the record with the given id and refreshes
// UpdatedAt. The bool result is false when no such record exists.
func (s *MemoryStore) UpdateIngredient(_ context.Context, id string, u domain.IngredientUpdate) (domain.Ingredient, bool, error) {
	s.ingMu.Lock()
	defer s.ingMu.Unlock()

	for i := range s.ingredients {
		if s.ingredients[i].ID != id {
			continue
		}
		merged := u.Apply(s.ingredients[i].IngredientAnalysis)
		if !merged.Status.Valid() {
			merged.Status = domain.StatusCaution
		}
		s.ingredients[i].IngredientAnalysis = merged
		s.ingredients[i].UpdatedAt = s.now()
		return s.ingredients[i].Clone(), true, nil
	}
	return domain.Ingredient{}, false, nil
}

// InsertConversation assigns an id and creation time and appends the record.
func (s *MemoryStore) InsertConversation(_ context.Context, c domain.Conversation) (domain.Conversation, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return domain.Conversation{}, errors.New("repository: InsertConversation: user id is required")
	}

	s.convMu.Lock()
	defer s.convMu.Unlock()

	c.ID = s.newID()
	c.CreatedAt = s.now()
	c = c.Clone()
	s.conversations = append(s.conversations, c)
	return c.Clone(), nil
}

// FindConversationsByUser returns the user's conversations, newest first.
// Records with equal timestamps keep reverse insertion order.
func (s *MemoryStore) FindConversationsByUser(_ context.Context, userID string) ([]domain.Conversation, error) {
	s.convMu.RLock()
	out := make([]domain.Conversation, 0)
	for i := len(s.conversations) - 1; i >= 0; i-- {
		if s.conversations[i].UserID == userID {
			out = append(out, s.conversations[i].Clone())
		}
	}
	s.convMu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
