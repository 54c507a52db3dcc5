package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL bounds how long a decrypted value is reused before SSM is asked again.
const DefaultTTL = 15 * time.Minute

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is the interface that wraps GetParameter.
// Consumers (e.g. the OpenAI client) should depend on this interface rather
// than the concrete *Client so they remain testable without real AWS calls.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client wraps an AWS SSM API for parameter retrieval. Values are cached in
// process for the configured TTL; failures are never cached.
type Client struct {
	api   ssmAPI
	cache *cache.Cache
}

// New creates a Client with the given SSM API implementation. A ttl <= 0
// selects DefaultTTL.
func New(api ssmAPI, ttl time.Duration) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{api: api, cache: cache.New(ttl, 2*ttl)}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}
	if c.cache != nil {
		if v, ok := c.cache.Get(name); ok {
			return v.(string), nil
		}
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	value := aws.ToString(out.Parameter.Value)
	if c.cache != nil {
		c.cache.SetDefault(name, value)
	}
	return value, nil
}

// Invalidate drops any cached value for name.
func (c *Client) Invalidate(name string) {
	if c.cache != nil {
		c.cache.Delete(strings.TrimSpace(name))
	}
}
