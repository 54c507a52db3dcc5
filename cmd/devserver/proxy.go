package main

import (
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxBodyBytes mirrors the API Gateway payload limit.
const maxBodyBytes = 10 << 20

type lambdaHandler interface {
	Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// proxy turns an HTTP request into the proxy event API Gateway would send.
// devUserID, when set, stands in for the authorizer.
func proxy(h lambdaHandler, devUserID string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes+1))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "read body")
		}
		if len(body) > maxBodyBytes {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge)
		}

		event := events.APIGatewayProxyRequest{
			HTTPMethod:                      req.Method,
			Path:                            req.URL.EscapedPath(),
			Headers:                         firstValues(req.Header),
			MultiValueHeaders:               req.Header,
			QueryStringParameters:           firstValues(req.URL.Query()),
			MultiValueQueryStringParameters: req.URL.Query(),
			Body:                            string(body),
			RequestContext: events.APIGatewayProxyRequestContext{
				RequestID:  uuid.NewString(),
				HTTPMethod: req.Method,
				Path:       req.URL.Path,
			},
		}
		if devUserID != "" {
			event.RequestContext.Authorizer = map[string]interface{}{
				"principalId": devUserID,
			}
		}

		resp, err := h.Handle(req.Context(), event)
		if err != nil {
			return err
		}
		for k, v := range resp.Headers {
			c.Response().Header().Set(k, v)
		}
		return c.Blob(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
	}
}

func firstValues(in map[string][]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
