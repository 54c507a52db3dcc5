package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cosmetics-assistant/internal/domain"
	"cosmetics-assistant/internal/integrations/openai"
	"cosmetics-assistant/internal/metrics"
	"cosmetics-assistant/internal/repository"
)

const (
	defaultMaxQuestion = 500
	defaultMaxName     = 120

	opAnswerQuestion    = "answer_question"
	opAnalyzeIngredient = "analyze_ingredient"
	opAnalyzeImage      = "analyze_image"
)

type LLMClient interface {
	Chat(ctx context.Context, in domain.ChatRequest) (string, error)
	HasCredential() bool
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// ClassifierConfig holds the model identifiers and input limits.
type ClassifierConfig struct {
	Model          string
	VisionModel    string
	MaxQuestionLen int
	MaxImageBytes  int
	ScanCacheTTL   time.Duration
}

// Classifier is the entry point for answering questions and analyzing
// ingredients: cache lookup, backend call, parse, persist.
type Classifier struct {
	llm     LLMClient
	cache   *IngredientCache
	parser  ResponseParser
	scans   *ScanCache
	metrics *metrics.ClassifierMetrics
	logger  *slog.Logger
	cfg     ClassifierConfig
}

type ClassifierOption func(*Classifier)

// WithParser replaces the default TextParser.
func WithParser(p ResponseParser) ClassifierOption {
	return func(c *Classifier) {
		if p != nil {
			c.parser = p
		}
	}
}

func WithMetrics(m *metrics.ClassifierMetrics) ClassifierOption {
	return func(c *Classifier) {
		c.metrics = m
	}
}

func WithLogger(l *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// AnswerOutput is the result of AnswerQuestion. Ingredient is set on cache hits.
type AnswerOutput struct {
	Answer      string
	Status      *domain.Status
	Explanation string
	Cached      bool
	Ingredient  *domain.Ingredient
}

func NewClassifier(llm LLMClient, store repository.IngredientReadWriter, cfg ClassifierConfig, opts ...ClassifierOption) (*Classifier, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: ingredient store must not be nil")
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if strings.TrimSpace(cfg.VisionModel) == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.MaxQuestionLen <= 0 {
		cfg.MaxQuestionLen = defaultMaxQuestion
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}

	c := &Classifier{
		llm:    llm,
		parser: TextParser{},
		logger: slog.Default(),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = NewIngredientCache(store, c.metrics, c.logger)
	c.scans = NewScanCache(cfg.ScanCacheTTL)
	return c, nil
}

// AnswerQuestion answers a free-text question. The question is first tried as
// an ingredient name against the cache. Nothing is persisted here.
func (c *Classifier) AnswerQuestion(ctx context.Context, question string) (AnswerOutput, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerOutput{}, newError(ErrorInvalidInput, "empty_question", nil)
	}
	if len(question) > c.cfg.MaxQuestionLen {
		return AnswerOutput{}, newError(ErrorInvalidInput, "question_too_long", nil)
	}

	if rec, ok := c.cache.Lookup(ctx, question); ok {
		return answerFromIngredient(rec), nil
	}

	raw, err := c.complete(ctx, opAnswerQuestion, c.cfg.Model, buildAssistantMessages(question), true)
	if err != nil {
		return AnswerOutput{}, err
	}

	reply := c.parser.ParseAssistantReply(raw)
	return AnswerOutput{
		Answer:      raw,
		Status:      reply.Status,
		Explanation: reply.Explanation,
	}, nil
}

// AnalyzeIngredient returns the stored analysis for name, or asks the backend,
// parses the reply and stores it. A failed write is logged and the unsaved
// analysis is returned with an empty ID.
func (c *Classifier) AnalyzeIngredient(ctx context.Context, name string) (domain.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Ingredient{}, newError(ErrorInvalidInput, "empty_ingredient_name", nil)
	}
	if len(name) > defaultMaxName {
		return domain.Ingredient{}, newError(ErrorInvalidInput, "ingredient_name_too_long", nil)
	}

	if rec, ok := c.cache.Lookup(ctx, name); ok {
		return rec, nil
	}

	raw, err := c.complete(ctx, opAnalyzeIngredient, c.cfg.Model, buildAnalysisMessages(name), true)
	if err != nil {
		return domain.Ingredient{}, err
	}

	analysis := c.parser.ParseIngredientAnalysis(name, raw)
	analysis.Name = name
	if !analysis.Status.Valid() {
		analysis.Status = domain.StatusCaution
	}

	stored, err := c.cache.Remember(ctx, analysis)
	if err != nil {
		c.metrics.IncrementPersistenceFailures()
		c.logger.WarnContext(ctx, "failed to persist ingredient analysis", "name", name, "err", err)
		return domain.Ingredient{IngredientAnalysis: analysis}, nil
	}
	return stored, nil
}

// complete runs one backend round trip and maps failures onto usecase errors.
func (c *Classifier) complete(ctx context.Context, op, model string, msgs []domain.ChatMessage, sampled bool) (string, error) {
	if !c.llm.HasCredential() {
		return "", newError(ErrorConfiguration, "missing_api_key", openai.ErrMissingCredential)
	}

	req := domain.ChatRequest{
		Model:     model,
		Messages:  msgs,
		MaxTokens: maxResponseTokens,
	}
	if sampled {
		temp := samplingTemp
		req.Temperature = &temp
	}

	start := time.Now()
	raw, err := c.llm.Chat(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		ucErr := mapUpstreamError(op, err)
		outcome := metrics.OutcomeError
		if ucErr.Code == ErrorEmptyResponse {
			outcome = metrics.OutcomeEmpty
		}
		c.metrics.ObserveUpstream(op, outcome, elapsed)
		c.logger.ErrorContext(ctx, "generative backend call failed", "operation", op, "code", ucErr.Code, "err", err)
		return "", ucErr
	}
	if strings.TrimSpace(raw) == "" {
		c.metrics.ObserveUpstream(op, metrics.OutcomeEmpty, elapsed)
		return "", newError(ErrorEmptyResponse, op+"_empty", nil)
	}
	c.metrics.ObserveUpstream(op, metrics.OutcomeSuccess, elapsed)
	return raw, nil
}

func mapUpstreamError(op string, err error) *Error {
	switch {
	case errors.Is(err, openai.ErrMissingCredential):
		return newError(ErrorConfiguration, "missing_api_key", err)
	case errors.Is(err, openai.ErrCredentialUnavailable):
		return newError(ErrorInternal, "api_key_load_error", err)
	case errors.Is(err, openai.ErrEmptyResponse):
		return newError(ErrorEmptyResponse, op+"_empty", err)
	}
	if status, ok := upstreamStatusCode(err); ok && status == 429 {
		return newError(ErrorRateLimited, op+"_rate_limited", err)
	}
	return newError(ErrorUpstream, op+"_error", err)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

func answerFromIngredient(rec domain.Ingredient) AnswerOutput {
	status := rec.Status
	lines := make([]string, 0, 3)
	if d := strings.TrimSpace(rec.Description); d != "" {
		lines = append(lines, fmt.Sprintf("%s: %s", rec.Name, d))
	} else {
		lines = append(lines, rec.Name)
	}
	lines = append(lines, "Status: "+string(status))
	if n := strings.TrimSpace(rec.SafetyNotes); n != "" {
		lines = append(lines, "Explanation: "+n)
	}
	return AnswerOutput{
		Answer:      strings.Join(lines, "\n"),
		Status:      &status,
		Explanation: strings.TrimSpace(rec.SafetyNotes),
		Cached:      true,
		Ingredient:  &rec,
	}
}
