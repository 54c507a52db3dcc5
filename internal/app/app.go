// Package app wires the configured components into an HTTP handler. Both the
// Lambda entry point and the development server build through here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"

	"cosmetics-assistant/handler"
	"cosmetics-assistant/internal/config"
	"cosmetics-assistant/internal/integrations/openai"
	"cosmetics-assistant/internal/integrations/paramstore"
	"cosmetics-assistant/internal/metrics"
	"cosmetics-assistant/internal/repository"
	"cosmetics-assistant/internal/usecase"
)

type Option func(*options)

type options struct {
	registry prometheus.Registerer
	store    *repository.MemoryStore
	getter   openai.Getter
}

// WithRegistry enables metrics on the given registry.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithStore shares an existing store instead of creating a fresh one.
func WithStore(s *repository.MemoryStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithParamGetter replaces the SSM-backed credential source.
func WithParamGetter(g openai.Getter) Option {
	return func(o *options) {
		o.getter = g
	}
}

// NewHandler builds the full request path from cfg. A missing backend
// credential is not fatal: classification calls then fail with a
// configuration error while stored records stay readable.
func NewHandler(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*handler.Handler, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// ---- Clients ----
	clientOpts := []openai.Option{
		openai.WithHTTPClient(&http.Client{Timeout: cfg.OpenAI.Timeout}),
		openai.WithMaxRetries(cfg.OpenAI.MaxRetries),
	}
	if cfg.OpenAI.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if !cfg.HasCredentialSource() {
		logger.WarnContext(ctx, "no generative backend credential configured; analysis requests will fail")
	}
	switch {
	case cfg.OpenAI.APIKey != "":
		clientOpts = append(clientOpts, openai.WithAPIKey(cfg.OpenAI.APIKey))
	case cfg.ParamPrefix != "":
		getter := o.getter
		if getter == nil {
			g, err := newParamStore(ctx)
			if err != nil {
				return nil, err
			}
			getter = g
		}
		clientOpts = append(clientOpts, openai.WithParamStore(getter, cfg.ParamPrefix))
	}

	llm, err := openai.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: create OpenAI client: %w", err)
	}

	var m *metrics.ClassifierMetrics
	if o.registry != nil {
		if m, err = metrics.NewClassifierMetrics(o.registry); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}

	store := o.store
	if store == nil {
		store = repository.NewMemoryStore()
	}

	// ---- Use cases ----
	classifier, err := usecase.NewClassifier(llm, store, usecase.ClassifierConfig{
		Model:          cfg.OpenAI.Model,
		VisionModel:    cfg.OpenAI.VisionModel,
		MaxQuestionLen: cfg.MaxQuestionLen,
		MaxImageBytes:  cfg.MaxImageBytes,
		ScanCacheTTL:   cfg.ScanCacheTTL,
	}, usecase.WithMetrics(m), usecase.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("app: create classifier: %w", err)
	}

	assistant, err := usecase.NewAssistantService(classifier, store, store, logger)
	if err != nil {
		return nil, fmt.Errorf("app: create assistant service: %w", err)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(assistant,
		handler.WithLogger(logger),
		handler.WithFeatures(handler.Features{
			VoiceEnabled: cfg.Voice.Enabled(),
			VoiceID:      cfg.Voice.VoiceID,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("app: create handler: %w", err)
	}
	return h, nil
}

func newParamStore(ctx context.Context) (*paramstore.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load AWS config: %w", err)
	}
	ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg), paramstore.DefaultTTL)
	if err != nil {
		return nil, fmt.Errorf("app: create SSM client: %w", err)
	}
	return ps, nil
}
