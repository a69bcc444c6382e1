package photoreal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spaghettifunk/gardenia/engine/config"
	"github.com/spaghettifunk/gardenia/engine/core"
)

const (
	PATH_FIRST_PASS  string = "/v1/enhance/first-pass"
	PATH_SECOND_PASS string = "/v1/enhance/second-pass"
	PATH_SEASONAL    string = "/v1/enhance/seasonal"
)

// RemoteError is a non 2xx answer from the enhancer.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("enhancer responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("enhancer responded %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether the same request may succeed later.
func (e *RemoteError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type HTTPEnhancerConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func HTTPEnhancerConfigFrom(cfg config.EnhancerConfig) HTTPEnhancerConfig {
	return HTTPEnhancerConfig{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		Timeout:        cfg.Timeout.Duration,
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff.Duration,
		MaxBackoff:     cfg.MaxBackoff.Duration,
	}
}

/**
 * @brief Enhancer talking JSON over HTTP. Network errors, 5xx and 429 are
 * retried with exponential backoff; other 4xx answers fail at once.
 */
type HTTPEnhancer struct {
	config     HTTPEnhancerConfig
	httpClient *http.Client
}

func NewHTTPEnhancer(config HTTPEnhancerConfig, httpClient *http.Client) (*HTTPEnhancer, error) {
	if config.BaseURL == "" {
		err := errors.New("enhancer base url is required")
		core.LogError("%s", err)
		return nil, err
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &HTTPEnhancer{config: config, httpClient: httpClient}, nil
}

func (c *HTTPEnhancer) FirstPass(ctx context.Context, req FirstPassRequest) (ImageResponse, error) {
	var resp ImageResponse
	if err := c.call(ctx, PATH_FIRST_PASS, req, &resp); err != nil {
		return ImageResponse{}, err
	}
	if resp.ImageURL == "" {
		return ImageResponse{}, errors.New("enhancer returned no image")
	}
	return resp, nil
}

func (c *HTTPEnhancer) SecondPass(ctx context.Context, req SecondPassRequest) (ImageResponse, error) {
	var resp ImageResponse
	if err := c.call(ctx, PATH_SECOND_PASS, req, &resp); err != nil {
		return ImageResponse{}, err
	}
	if resp.ImageURL == "" {
		return ImageResponse{}, errors.New("enhancer returned no image")
	}
	return resp, nil
}

func (c *HTTPEnhancer) Seasonal(ctx context.Context, req SeasonalRequest) (SeasonalResponse, error) {
	var resp SeasonalResponse
	if err := c.call(ctx, PATH_SEASONAL, req, &resp); err != nil {
		return SeasonalResponse{}, err
	}
	return resp, nil
}

func (c *HTTPEnhancer) call(ctx context.Context, path string, in interface{}, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	backoff := Limited(
		Immediately(ExponentialBackoff(c.config.InitialBackoff, 2, c.config.MaxBackoff)),
		c.config.MaxAttempts,
	)
	attempt := 0
	var cause error
	_, err = Blocking(ctx, backoff, func() (struct{}, error) {
		attempt++
		cause = c.post(ctx, path, body, out)
		if cause == nil {
			return struct{}{}, nil
		}
		if retryable(ctx, cause) && attempt < c.config.MaxAttempts {
			core.LogWarn("enhancer %s attempt %d/%d failed: %s", path, attempt, c.config.MaxAttempts, cause)
			return struct{}{}, ErrRetry
		}
		return struct{}{}, cause
	})
	if err != nil && cause != nil {
		return cause
	}
	return err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Transient()
	}
	if errors.Is(err, errBadBody) {
		return false
	}
	// transport failure
	return true
}

func (c *HTTPEnhancer) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return unmarshalJsonResponse(resp, out)
}

var errBadBody = errors.New("unexpected response body")

type errorMessage struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func unmarshalJsonResponse(resp *http.Response, v interface{}) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("%w: %w (status code = %d)", errBadBody, err, resp.StatusCode)
		}
		return nil
	}

	remote := &RemoteError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return remote
	}
	var msg errorMessage
	if err := json.Unmarshal(raw, &msg); err == nil && (msg.Message != "" || msg.Error != "") {
		remote.Message = msg.Message
		if remote.Message == "" {
			remote.Message = msg.Error
		}
	} else {
		remote.Message = strings.TrimSpace(string(raw))
	}
	return remote
}
