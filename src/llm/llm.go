package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"code-popup/src/logutil"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-2.5-pro-preview-03-25"

	// PromptSuffix is appended verbatim to every submitted text.
	PromptSuffix = "give the correct code in c langugage , without any explanation, no explanation needed, just the code.there should no commments and no markdown"

	// NoResponse is returned when a successful reply carries no candidate text.
	NoResponse = "No response from API"

	candidateTextPath = "candidates.0.content.parts.0.text"
	maxErrorBody      = 4096
)

type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	// Timeout bounds one request; zero leaves the HTTP client without a deadline.
	Timeout time.Duration
}

// Gemini generateContent request body.
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// BuildPrompt applies the fixed prompt augmentation.
func BuildPrompt(text string) string {
	return text + PromptSuffix
}

// NewGenerateRequest wraps text into a single-part request body.
func NewGenerateRequest(text string) GenerateRequest {
	return GenerateRequest{Contents: []Content{{Parts: []Part{{Text: text}}}}}
}

// Generate sends one generateContent call for text (already augmented) and
// returns the first candidate's text, or NoResponse when the reply has none.
func (c *Client) Generate(ctx context.Context, text string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("API key is required")
	}

	body, err := json.Marshal(NewGenerateRequest(text))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(":generateContent"), bytes.NewReader(body))
	if err != nil {
		return "", c.redact(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.redact(fmt.Errorf("API request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.redact(fmt.Errorf("failed to read response: %w", err))
	}
	log.Debug().Int("status", resp.StatusCode).Dur("took", time.Since(started)).Int("bytes", len(data)).Msg("generateContent completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.redact(statusError(resp, data))
	}

	return ExtractText(data)
}

// Ping checks that the key and model are accepted without generating anything.
func (c *Client) Ping(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(""), nil)
	if err != nil {
		return c.redact(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.redact(fmt.Errorf("ping failed: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return c.redact(statusError(resp, data))
	}
	return nil
}

// ExtractText pulls candidates[0].content.parts[0].text out of a response body.
// A body that is not JSON is an error; JSON without that path yields NoResponse.
func ExtractText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("failed to decode response: invalid JSON")
	}
	res := gjson.GetBytes(body, candidateTextPath)
	if !res.Exists() || res.Type != gjson.String {
		return NoResponse, nil
	}
	return res.String(), nil
}

func (c *Client) endpointURL(suffix string) string {
	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	return fmt.Sprintf("%s/models/%s%s?%s", c.cfg.Endpoint, url.PathEscape(c.cfg.Model), suffix, q.Encode())
}

func statusError(resp *http.Response, body []byte) error {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		return fmt.Errorf("API returned status %s", resp.Status)
	}
	return fmt.Errorf("API returned status %s: %s", resp.Status, msg)
}

// redact keeps the key, which travels in the query string, out of error text.
func (c *Client) redact(err error) error {
	if err == nil || c.cfg.APIKey == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, c.cfg.APIKey) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, c.cfg.APIKey, logutil.RedactKey(c.cfg.APIKey)))
}
