// Package translate cleans extracted page text and sends it to an online
// translation endpoint.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultEndpoint is the public Google translate endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// DefaultTarget is the language pages are translated into.
const DefaultTarget = "id"

// minTextLen is the shortest cleaned text worth translating.
const minTextLen = 5

var (
	// ErrUnreadable is returned when a page has too little text to translate.
	ErrUnreadable = errors.New("text is unreadable")
	// ErrNoTranslation is returned when the endpoint answers without a translation.
	ErrNoTranslation = errors.New("no translation in response")
)

// Client translates text through the translate_a/single endpoint.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	endpoint    string
	target      string
	logger      *slog.Logger
}

// Config holds client settings. Zero values fall back to defaults.
type Config struct {
	Endpoint string
	Target   string
	Timeout  time.Duration
	// Rate is the sustained requests per second.
	Rate float64
}

// NewClient creates a rate limited translation client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(limit, 2),
		endpoint:    cfg.Endpoint,
		target:      cfg.Target,
		logger:      logger,
	}
}

// Target returns the default target language.
func (c *Client) Target() string { return c.target }

// TranslatePage cleans raw page text and translates it into the client's
// target language.
func (c *Client) TranslatePage(ctx context.Context, raw string) (string, error) {
	text := CleanText(raw)
	if len([]rune(text)) < minTextLen {
		return "", ErrUnreadable
	}
	return c.Translate(ctx, text, c.target)
}

// Translate sends text to the endpoint with automatic source detection.
func (c *Client) Translate(ctx context.Context, text, target string) (string, error) {
	if target == "" {
		target = c.target
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)
	reqURL := c.endpoint + "?" + params.Encode()

	c.logger.Debug("translating", "target", target, "chars", len(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate failed: status %d", resp.StatusCode)
	}

	var body []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return joinSegments(body)
}

// joinSegments concatenates the translated text of each segment in the
// first element of the response: [[["translated","source",...],...],...].
func joinSegments(body []json.RawMessage) (string, error) {
	if len(body) == 0 {
		return "", ErrNoTranslation
	}
	var segments []json.RawMessage
	if err := json.Unmarshal(body[0], &segments); err != nil || len(segments) == 0 {
		return "", ErrNoTranslation
	}

	var out strings.Builder
	for _, seg := range segments {
		var parts []json.RawMessage
		if err := json.Unmarshal(seg, &parts); err != nil || len(parts) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(parts[0], &s); err != nil {
			continue
		}
		out.WriteString(s)
	}
	return out.String(), nil
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	sentence   = regexp.MustCompile(`[^.!?]+[.!?]+(\s|$)`)
)

// CleanText collapses whitespace and regroups the text into paragraphs of
// four sentences. Text without sentence punctuation is returned collapsed;
// a trailing fragment with no punctuation is dropped.
func CleanText(raw string) string {
	text := strings.TrimSpace(whitespace.ReplaceAllString(raw, " "))
	sentences := sentence.FindAllString(text, -1)
	if len(sentences) == 0 {
		return text
	}

	var out strings.Builder
	for i, s := range sentences {
		out.WriteString(strings.TrimSpace(s))
		out.WriteByte(' ')
		if (i+1)%4 == 0 {
			out.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(out.String())
}
