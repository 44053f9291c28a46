package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrGenerationFailed = errors.New("text generation request failed")
)

type TextGenConfig struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// TextGenClient talks to the external AI text-generation service. The
// service has unspecified latency and may fail; callers must treat every
// Generate call as fallible and slow.
type TextGenClient struct {
	config TextGenConfig
	client *fasthttp.Client
}

func NewTextGenClient(config TextGenConfig) *TextGenClient {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 250 * time.Millisecond
	}

	return &TextGenClient{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}
}

type textGenResponse struct {
	Text string `json:"text"`
}

func (c *TextGenClient) Generate(ctx context.Context, req model.TextGenRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		start := time.Now()
		respBody, err := c.doRequest(ctx, "/api/v1/reports/generate", body)
		if err != nil {
			logger.Warn("text generation request failed, retrying",
				"error", err, "attempt", attempt+1)
			lastErr = err
			continue
		}

		var resp textGenResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal response: %w", err)
		}
		if resp.Text == "" {
			lastErr = errors.New("empty text in response")
			continue
		}

		logger.Debug("text generated",
			"student", req.StudentName, "latency_ms", time.Since(start).Milliseconds())
		return resp.Text, nil
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrGenerationFailed, c.config.MaxRetries+1, lastErr)
}

func (c *TextGenClient) doRequest(ctx context.Context, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.URL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}
