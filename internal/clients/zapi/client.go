package zapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/caresupport-backend/internal/httpx"
	"github.com/yungbote/caresupport-backend/internal/logger"
	"github.com/yungbote/caresupport-backend/internal/types"
	"github.com/yungbote/caresupport-backend/internal/utils"
)

// Client sends WhatsApp texts through a Z-API style gateway. Credentials are
// per-request (per channel instance), not process-wide.
type Client interface {
	SendText(ctx context.Context, instance *types.ChannelInstance, to string, text string) error
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	timeoutSec := utils.GetEnvAsInt("ZAPI_TIMEOUT_SECONDS", 15, nil)
	maxRetries := utils.GetEnvAsInt("ZAPI_MAX_RETRIES", 0, nil)

	return Config{
		BaseURL:    strings.TrimSpace(os.Getenv("ZAPI_BASE_URL")),
		Timeout:    time.Duration(timeoutSec) * time.Second,
		MaxRetries: maxRetries,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.z-api.io"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:        log.With("client", "ZAPIClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	maxRetries int
}

type sendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendTextResponse struct {
	ZaapID    string `json:"zaapId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "zapi: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("zapi http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) SendText(ctx context.Context, instance *types.ChannelInstance, to string, text string) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("zapi client unavailable")
	}
	if instance == nil {
		return fmt.Errorf("zapi: channel instance required")
	}

	to = strings.TrimSpace(to)
	text = strings.TrimSpace(text)
	if to == "" {
		return fmt.Errorf("zapi: destination required")
	}
	if text == "" {
		return fmt.Errorf("zapi: text required")
	}
	if instance.InstanceID == "" || instance.Token == "" {
		return fmt.Errorf("zapi: instance credentials incomplete")
	}

	endpoint := fmt.Sprintf("%s/instances/%s/token/%s/send-text", c.cfg.BaseURL, instance.InstanceID, instance.Token)
	payload := sendTextRequest{Phone: to, Message: text}

	_, err := doJSON[sendTextResponse](c, ctx, http.MethodPost, endpoint, payload)
	return err
}

func doJSON[T any](c *client, ctx context.Context, method, urlStr string, payload any) (*T, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		out, resp, err := doJSONOnce[T](c, ctx, method, urlStr, payload)
		if err == nil {
			return out, nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Z-API request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return nil, fmt.Errorf("unreachable retry loop")
}

func doJSONOnce[T any](c *client, ctx context.Context, method, urlStr string, payload any) (*T, *http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resp, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if len(raw) == 0 {
		return &out, resp, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, resp, fmt.Errorf("zapi decode error: %w; raw=%s", err, string(raw))
	}
	return &out, resp, nil
}
