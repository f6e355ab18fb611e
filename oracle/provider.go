package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/internal/metrics"
	"github.com/BaSui01/webqa/internal/tlsutil"
	"github.com/BaSui01/webqa/types"
)

// Provider talks to any OpenAI-compatible chat-completions endpoint. It
// serializes calls, enforces a minimum interval between them, and retries
// exactly once on a rate-limit response.
type Provider struct {
	cfg    config.OracleConfig
	client *http.Client
	logger *zap.Logger

	// Metrics, when set, receives one observation per completion attempt.
	Metrics *metrics.Collector

	mu       sync.Mutex
	lastCall time.Time

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProvider builds a Provider from config. The returned provider is nil
// when the oracle channel is not configured.
func NewProvider(cfg config.OracleConfig, logger *zap.Logger) *Provider {
	if !cfg.Enabled() {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Provider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger.With(zap.String("component", "oracle")),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Client. Calls are serialized and paced: at most one
// request per MinInterval, a single retry after RetryDelay on HTTP 429.
func (p *Provider) Complete(ctx context.Context, prompt string, image []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.throttle(ctx); err != nil {
		return "", err
	}

	begin := p.now()
	text, err := p.call(ctx, prompt, image)
	var oerr *types.Error
	if errors.As(err, &oerr) && oerr.Code == types.ErrOracleRateLimited {
		delay := p.cfg.RetryDelay
		if delay == 0 {
			delay = 15 * time.Second
		}
		p.logger.Warn("oracle rate limited, retrying once", zap.Duration("delay", delay))
		if serr := p.sleep(ctx, delay); serr != nil {
			p.observe(serr, begin)
			return "", serr
		}
		text, err = p.call(ctx, prompt, image)
	}
	p.observe(err, begin)
	if err != nil {
		return "", err
	}
	p.lastCall = p.now()
	return text, nil
}

// observe feeds the completion outcome into the metrics collector, when one
// is attached.
func (p *Provider) observe(err error, begin time.Time) {
	if p.Metrics == nil {
		return
	}
	status := "ok"
	var oerr *types.Error
	switch {
	case err == nil:
	case errors.As(err, &oerr) && oerr.Code == types.ErrOracleRateLimited:
		status = "rate_limited"
	default:
		status = "error"
	}
	p.Metrics.RecordOracleCall(status, p.now().Sub(begin))
}

func (p *Provider) throttle(ctx context.Context) error {
	interval := p.cfg.MinInterval
	if interval <= 0 || p.lastCall.IsZero() {
		return nil
	}
	if wait := interval - p.now().Sub(p.lastCall); wait > 0 {
		return p.sleep(ctx, wait)
	}
	return nil
}

func (p *Provider) call(ctx context.Context, prompt string, image []byte) (string, error) {
	content := any(prompt)
	if len(image) > 0 {
		content = []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
			}},
		}
	}

	body := chatRequest{
		Model:       p.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		MaxTokens:   1024,
		Temperature: 0.2,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", types.WrapError(types.ErrOracleUpstream, "marshal oracle request", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", types.WrapError(types.ErrOracleUpstream, "build oracle request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", types.WrapError(types.ErrOracleUnavailable, "oracle request failed", err).WithRetryable(true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", types.WrapError(types.ErrOracleUpstream, "read oracle response", err)
	}

	if resp.StatusCode >= 400 {
		return "", mapStatus(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", types.WrapError(types.ErrOracleUpstream, "decode oracle response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", types.NewError(types.ErrOracleUpstream, "oracle returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func mapStatus(status int, raw []byte) *types.Error {
	var parsed chatResponse
	_ = json.Unmarshal(raw, &parsed)
	msg := parsed.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("oracle upstream returned status %d", status)
	}
	switch status {
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrOracleRateLimited, msg).WithHTTPStatus(status).WithRetryable(true)
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.ErrOracleUnavailable, msg).WithHTTPStatus(status)
	default:
		return types.NewError(types.ErrOracleUpstream, msg).WithHTTPStatus(status).WithRetryable(status >= 500)
	}
}
