package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultMaxImageBytes = 5 << 20
	dataURLPrefix        = "data:"
	base64Marker         = ";base64,"
)

// ScanOutput is the opaque guidance text produced for a product photo.
type ScanOutput struct {
	Analysis string
	Cached   bool
}

// ScanCache remembers image analyses for a short time so a re-submitted photo
// does not trigger a second backend call. A nil *ScanCache caches nothing.
type ScanCache struct {
	cache *cache.Cache
}

// NewScanCache returns nil when ttl <= 0.
func NewScanCache(ttl time.Duration) *ScanCache {
	if ttl <= 0 {
		return nil
	}
	return &ScanCache{cache: cache.New(ttl, 2*ttl)}
}

func (s *ScanCache) get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.cache.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (s *ScanCache) set(key, analysis string) {
	if s == nil {
		return
	}
	s.cache.SetDefault(key, analysis)
}

// AnalyzeImage asks the vision model to list and assess the ingredients shown
// on a product photo. image is an http(s) URL, a data URL or raw base64.
func (c *Classifier) AnalyzeImage(ctx context.Context, image string) (ScanOutput, error) {
	imageURL, err := normalizeImage(image, c.cfg.MaxImageBytes)
	if err != nil {
		return ScanOutput{}, err
	}

	key := imageKey(imageURL)
	if analysis, ok := c.scans.get(key); ok {
		c.metrics.IncrementScanCacheHits()
		return ScanOutput{Analysis: analysis, Cached: true}, nil
	}

	raw, err := c.complete(ctx, opAnalyzeImage, c.cfg.VisionModel, buildScanMessages(imageURL), false)
	if err != nil {
		return ScanOutput{}, err
	}
	c.scans.set(key, raw)
	return ScanOutput{Analysis: raw}, nil
}

// normalizeImage validates the image reference and returns a URL the backend
// accepts. Raw base64 is wrapped into a data URL with a sniffed media type.
func normalizeImage(image string, maxBytes int) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return "", newError(ErrorInvalidInput, "empty_image", nil)
	}

	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		u, err := url.Parse(image)
		if err != nil || u.Host == "" {
			return "", newError(ErrorInvalidInput, "invalid_image_url", err)
		}
		return u.String(), nil
	}

	payload := image
	if strings.HasPrefix(image, dataURLPrefix) {
		idx := strings.Index(image, base64Marker)
		if idx < 0 || !strings.HasPrefix(image, dataURLPrefix+"image/") {
			return "", newError(ErrorInvalidInput, "invalid_image_data_url", nil)
		}
		payload = image[idx+len(base64Marker):]
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return "", newError(ErrorInvalidInput, "image_too_large", nil)
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", newError(ErrorInvalidInput, "invalid_image_encoding", err)
	}
	if len(decoded) > maxBytes {
		return "", newError(ErrorInvalidInput, "image_too_large", nil)
	}
	mediaType := http.DetectContentType(decoded)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", newError(ErrorInvalidInput, "unsupported_image_type", nil)
	}

	if payload == image {
		return dataURLPrefix + mediaType + base64Marker + payload, nil
	}
	return image, nil
}

func imageKey(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return hex.EncodeToString(sum[:])
}
