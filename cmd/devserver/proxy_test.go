package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	got  events.APIGatewayProxyRequest
	resp events.APIGatewayProxyResponse
}

func (r *recordingHandler) Handle(_ context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	r.got = event
	return r.resp, nil
}

func TestProxy_ForwardsRequest(t *testing.T) {
	h := &recordingHandler{resp: events.APIGatewayProxyResponse{
		StatusCode: http.StatusCreated,
		Headers:    map[string]string{"Content-Type": "application/json", "X-Correlation-Id": "corr-1"},
		Body:       `{"ok":true}`,
	}}
	e := newServer(h, prometheus.NewRegistry(), "dev-user", slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/ingredients/search?q=acid", nil)
	req.Header.Set("X-Correlation-Id", "corr-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, "corr-1", rec.Header().Get("X-Correlation-Id"))

	require.Equal(t, http.MethodGet, h.got.HTTPMethod)
	require.Equal(t, "/ingredients/search", h.got.Path)
	require.Equal(t, "acid", h.got.QueryStringParameters["q"])
	require.Equal(t, "corr-1", h.got.Headers["X-Correlation-Id"])
	require.Equal(t, "dev-user", h.got.RequestContext.Authorizer["principalId"])
}

func TestProxy_ForwardsBodyWithoutIdentity(t *testing.T) {
	h := &recordingHandler{resp: events.APIGatewayProxyResponse{StatusCode: http.StatusOK}}
	e := newServer(h, prometheus.NewRegistry(), "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"hi"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"question":"hi"}`, h.got.Body)
	require.Nil(t, h.got.RequestContext.Authorizer)
}

func TestServer_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "devserver_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	e := newServer(&recordingHandler{}, reg, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "devserver_test_total 1")
}
