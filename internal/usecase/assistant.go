package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"cosmetics-assistant/internal/domain"
	"cosmetics-assistant/internal/repository"
)

// Answerer is the subset of *Classifier the assistant service drives.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string) (AnswerOutput, error)
	AnalyzeIngredient(ctx context.Context, name string) (domain.Ingredient, error)
	AnalyzeImage(ctx context.Context, image string) (ScanOutput, error)
}

// AssistantService sits between the HTTP surface and the classifier. It
// attaches answers to the authenticated user's history and exposes the
// ingredient catalogue.
type AssistantService struct {
	classifier    Answerer
	ingredients   repository.IngredientReadWriter
	conversations repository.ConversationReadWriter
	logger        *slog.Logger
}

type AskInput struct {
	Question string
	UserID   string
}

type AskOutput struct {
	Answer       string
	Status       *domain.Status
	Explanation  string
	Cached       bool
	Conversation *domain.Conversation
}

func NewAssistantService(classifier Answerer, ingredients repository.IngredientReadWriter, conversations repository.ConversationReadWriter, logger *slog.Logger) (*AssistantService, error) {
	if classifier == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if ingredients == nil {
		return nil, errors.New("usecase: ingredient store must not be nil")
	}
	if conversations == nil {
		return nil, errors.New("usecase: conversation store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantService{
		classifier:    classifier,
		ingredients:   ingredients,
		conversations: conversations,
		logger:        logger,
	}, nil
}

// Ask answers the question and, for an authenticated caller, records the
// exchange. A failed write is logged and does not fail the call.
func (s *AssistantService) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	out, err := s.classifier.AnswerQuestion(ctx, in.Question)
	if err != nil {
		return AskOutput{}, err
	}

	res := AskOutput{
		Answer:      out.Answer,
		Status:      out.Status,
		Explanation: out.Explanation,
		Cached:      out.Cached,
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return res, nil
	}
	conv, err := s.conversations.InsertConversation(ctx, domain.Conversation{
		UserID:   userID,
		Question: strings.TrimSpace(in.Question),
		Answer:   out.Answer,
		Status:   out.Status,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to persist conversation", "user_id", userID, "err", err)
		return res, nil
	}
	res.Conversation = &conv
	return res, nil
}

func (s *AssistantService) AnalyzeIngredient(ctx context.Context, name string) (domain.Ingredient, error) {
	return s.classifier.AnalyzeIngredient(ctx, name)
}

func (s *AssistantService) Scan(ctx context.Context, image string) (ScanOutput, error) {
	return s.classifier.AnalyzeImage(ctx, image)
}

// History returns the caller's conversations, newest first.
func (s *AssistantService) History(ctx context.Context, userID string) ([]domain.Conversation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newError(ErrorUnauthenticated, "missing_user", nil)
	}
	convs, err := s.conversations.FindConversationsByUser(ctx, userID)
	if err != nil {
		return nil, newError(ErrorInternal, "conversation_read_error", err)
	}
	return convs, nil
}

// SearchIngredients lists up to ten stored ingredients matching query.
func (s *AssistantService) SearchIngredients(ctx context.Context, query string) ([]domain.Ingredient, error) {
	if len(query) > defaultMaxName {
		return nil, newError(ErrorInvalidInput, "query_too_long", nil)
	}
	recs, err := s.ingredients.SearchIngredients(ctx, query)
	if err != nil {
		return nil, newError(ErrorInternal, "ingredient_search_error", err)
	}
	return recs, nil
}

// GetIngredient returns a stored ingredient without consulting the backend.
func (s *AssistantService) GetIngredient(ctx context.Context, name string) (domain.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Ingredient{}, newError(ErrorInvalidInput, "empty_ingredient_name", nil)
	}
	rec, ok, err := s.ingredients.FindIngredientByName(ctx, name)
	if err != nil {
		return domain.Ingredient{}, newError(ErrorInternal, "ingredient_read_error", err)
	}
	if !ok {
		return domain.Ingredient{}, newError(ErrorNotFound, "ingredient_not_found", nil)
	}
	return rec, nil
}

// UpdateIngredient applies a partial update to a stored ingredient.
func (s *AssistantService) UpdateIngredient(ctx context.Context, id string, u domain.IngredientUpdate) (domain.Ingredient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Ingredient{}, newError(ErrorInvalidInput, "empty_ingredient_id", nil)
	}
	if u.Empty() {
		return domain.Ingredient{}, newError(ErrorInvalidInput, "empty_update", nil)
	}
	if u.Status != nil {
		st, ok := domain.ParseStatus(string(*u.Status))
		if !ok {
			return domain.Ingredient{}, newError(ErrorInvalidInput, "invalid_status", nil)
		}
		u.Status = &st
	}

	rec, ok, err := s.ingredients.UpdateIngredient(ctx, id, u)
	if err != nil {
		return domain.Ingredient{}, newError(ErrorInternal, "ingredient_update_error", err)
	}
	if !ok {
		return domain.Ingredient{}, newError(ErrorNotFound, "ingredient_not_found", nil)
	}
	return rec, nil
}
