package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"cosmetics-assistant/internal/domain"
	"cosmetics-assistant/internal/usecase"
)

const (
	headerCorrelationID   = "X-Correlation-Id"
	errorMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// UseCase is the application surface the HTTP layer drives.
type UseCase interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
	History(ctx context.Context, userID string) ([]domain.Conversation, error)
	AnalyzeIngredient(ctx context.Context, name string) (domain.Ingredient, error)
	Scan(ctx context.Context, image string) (usecase.ScanOutput, error)
	SearchIngredients(ctx context.Context, query string) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, name string) (domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, id string, u domain.IngredientUpdate) (domain.Ingredient, error)
}

// Features is what the client may switch on. Voice output is optional and
// degrades to disabled.
type Features struct {
	VoiceEnabled bool
	VoiceID      string
}

type Handler struct {
	uc       UseCase
	features Features
	logger   *slog.Logger
}

type Option func(*Handler)

func WithFeatures(f Features) Option {
	return func(h *Handler) {
		h.features = f
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer         string  `json:"answer"`
	Status         *string `json:"status,omitempty"`
	Explanation    string  `json:"explanation,omitempty"`
	Cached         bool    `json:"cached"`
	ConversationID string  `json:"conversationId,omitempty"`
}

type analyzeRequest struct {
	Name string `json:"name"`
}

type scanRequest struct {
	Image string `json:"image"`
}

type scanResponse struct {
	Analysis string `json:"analysis"`
	Cached   bool   `json:"cached"`
}

type searchResponse struct {
	Ingredients []domain.Ingredient `json:"ingredients"`
}

type conversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
}

type voiceFeature struct {
	Enabled bool   `json:"enabled"`
	VoiceID string `json:"voiceId,omitempty"`
}

type featuresResponse struct {
	Voice voiceFeature `json:"voice"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewHandler(uc UseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{uc: uc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle serves one API Gateway proxy event.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)
	logger := h.logger.With("correlation_id", corrID, "method", event.HTTPMethod, "path", event.Path)

	status, payload := h.route(ctx, logger, event)
	return jsonResponse(status, corrID, payload), nil
}

func (h *Handler) route(ctx context.Context, logger *slog.Logger, event events.APIGatewayProxyRequest) (int, any) {
	method := strings.ToUpper(event.HTTPMethod)
	segments := splitPath(event.Path)

	switch {
	case matches(segments, "ask"):
		if method != http.MethodPost {
			return methodNotAllowed()
		}
		return h.ask(ctx, logger, event)

	case matches(segments, "scan"):
		if method != http.MethodPost {
			return methodNotAllowed()
		}
		return h.scan(ctx, logger, event)

	case matches(segments, "conversations"):
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		convs, err := h.uc.History(ctx, userID(event.RequestContext))
		if err != nil {
			return h.failure(ctx, logger, err)
		}
		return http.StatusOK, conversationsResponse{Conversations: convs}

	case matches(segments, "features"):
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		return http.StatusOK, featuresResponse{Voice: voiceFeature{
			Enabled: h.features.VoiceEnabled,
			VoiceID: h.features.VoiceID,
		}}

	case matches(segments, "ingredients", "analyze"):
		if method != http.MethodPost {
			return methodNotAllowed()
		}
		var req analyzeRequest
		if err := decodeBody(event, &req); err != nil {
			return invalidBody()
		}
		rec, err := h.uc.AnalyzeIngredient(ctx, req.Name)
		if err != nil {
			return h.failure(ctx, logger, err)
		}
		return http.StatusOK, rec

	case matches(segments, "ingredients", "search"):
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		recs, err := h.uc.SearchIngredients(ctx, event.QueryStringParameters["q"])
		if err != nil {
			return h.failure(ctx, logger, err)
		}
		return http.StatusOK, searchResponse{Ingredients: recs}

	case len(segments) == 2 && segments[0] == "ingredients":
		key := unescape(segments[1])
		switch method {
		case http.MethodGet:
			rec, err := h.uc.GetIngredient(ctx, key)
			if err != nil {
				return h.failure(ctx, logger, err)
			}
			return http.StatusOK, rec
		case http.MethodPatch:
			var u domain.IngredientUpdate
			if err := decodeBody(event, &u); err != nil {
				return invalidBody()
			}
			rec, err := h.uc.UpdateIngredient(ctx, key, u)
			if err != nil {
				return h.failure(ctx, logger, err)
			}
			return http.StatusOK, rec
		}
		return methodNotAllowed()
	}

	return http.StatusNotFound, errorResponse{Error: string(usecase.ErrorNotFound), Message: "Route not found."}
}

func (h *Handler) ask(ctx context.Context, logger *slog.Logger, event events.APIGatewayProxyRequest) (int, any) {
	var req askRequest
	if err := decodeBody(event, &req); err != nil {
		return invalidBody()
	}

	out, err := h.uc.Ask(ctx, usecase.AskInput{
		Question: req.Question,
		UserID:   userID(event.RequestContext),
	})
	if err != nil {
		return h.failure(ctx, logger, err)
	}

	resp := askResponse{
		Answer:      out.Answer,
		Explanation: out.Explanation,
		Cached:      out.Cached,
	}
	if out.Status != nil {
		s := string(*out.Status)
		resp.Status = &s
	}
	if out.Conversation != nil {
		resp.ConversationID = out.Conversation.ID
	}
	return http.StatusOK, resp
}

func (h *Handler) scan(ctx context.Context, logger *slog.Logger, event events.APIGatewayProxyRequest) (int, any) {
	var req scanRequest
	if err := decodeBody(event, &req); err != nil {
		return invalidBody()
	}
	out, err := h.uc.Scan(ctx, req.Image)
	if err != nil {
		return h.failure(ctx, logger, err)
	}
	return http.StatusOK, scanResponse{Analysis: out.Analysis, Cached: out.Cached}
}

func (h *Handler) failure(ctx context.Context, logger *slog.Logger, err error) (int, any) {
	code := usecase.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "code", code, "err", err)
	} else {
		logger.InfoContext(ctx, "request rejected", "code", code, "err", err)
	}
	return status, errorResponse{Error: string(code), Message: messageFor(code)}
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorUnauthenticated:
		return http.StatusUnauthorized
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream, usecase.ErrorEmptyResponse:
		return http.StatusBadGateway
	case usecase.ErrorConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(code usecase.ErrorCode) string {
	switch code {
	case usecase.ErrorInvalidInput:
		return "The request is invalid."
	case usecase.ErrorUnauthenticated:
		return "Sign in to continue."
	case usecase.ErrorNotFound:
		return "The requested record was not found."
	case usecase.ErrorRateLimited:
		return "The assistant is busy. Please retry shortly."
	case usecase.ErrorUpstream:
		return "The assistant could not be reached. Please retry."
	case usecase.ErrorEmptyResponse:
		return "The assistant returned no answer. Please retry."
	case usecase.ErrorConfiguration:
		return "The assistant is not configured. Contact the operator."
	default:
		return "Something went wrong."
	}
}

func methodNotAllowed() (int, any) {
	return http.StatusMethodNotAllowed, errorResponse{Error: errorMethodNotAllowed, Message: "Method not allowed."}
}

func invalidBody() (int, any) {
	return http.StatusBadRequest, errorResponse{
		Error:   string(usecase.ErrorInvalidInput),
		Message: "Request body must be a JSON object.",
	}
}

func decodeBody(event events.APIGatewayProxyRequest, v any) error {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return err
		}
		body = decoded
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func jsonResponse(status int, corrID string, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR","message":"Something went wrong."}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":      "application/json",
			headerCorrelationID: corrID,
		},
		Body: string(body),
	}
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, headerCorrelationID) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}

// userID reads the caller identity set by the API Gateway authorizer: the
// Cognito/JWT "sub" claim, else the Lambda authorizer principal.
func userID(rc events.APIGatewayProxyRequestContext) string {
	if claims, ok := rc.Authorizer["claims"].(map[string]interface{}); ok {
		if sub, ok := claims["sub"].(string); ok && sub != "" {
			return sub
		}
	}
	if p, ok := rc.Authorizer["principalId"].(string); ok {
		return p
	}
	return ""
}

func splitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func matches(segments []string, want ...string) bool {
	return slices.Equal(segments, want)
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
