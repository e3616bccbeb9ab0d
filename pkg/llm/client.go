package llm

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

	"github.com/rs/zerolog"

	"shogichat/pkg/chat"
	"shogichat/pkg/shogi"
)

var (
	ErrNoAPIKey   = errors.New("API key not configured")
	ErrEmptyReply = errors.New("model returned no content")
)

// StatusError is a non-2xx answer from the chat completions endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat completion failed: %d %s", e.Code, e.Body)
}

// Client talks to an OpenRouter-compatible chat completions endpoint.
type Client struct {
	Endpoint    string
	Model       string
	APIKey      string
	Referer     string
	Title       string
	MaxTokens   int
	Temperature float64

	http *http.Client
	log  zerolog.Logger
}

// NewClient builds a client from cfg. The key is read from the environment
// variable cfg names.
func NewClient(cfg chat.Config, log zerolog.Logger) *Client {
	return &Client{
		Endpoint:    cfg.Endpoint,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey(),
		Referer:     cfg.Referer,
		Title:       cfg.Title,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		http:        &http.Client{Timeout: cfg.Timeout() + 5*time.Second},
		log:         log.With().Str("component", "llm").Logger(),
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends messages and returns the trimmed content of the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.APIKey == "" {
		return "", ErrNoAPIKey
	}
	body, err := json.Marshal(completionRequest{
		Model:       c.Model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.Referer != "" {
		req.Header.Set("HTTP-Referer", c.Referer)
	}
	if c.Title != "" {
		req.Header.Set("X-Title", c.Title)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error().Int("status", resp.StatusCode).Str("body", string(text)).Msg("chat completion failed")
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyReply
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyReply
	}
	c.log.Debug().Str("model", c.Model).Dur("elapsed", time.Since(start)).Str("reply", content).Msg("chat completion")
	return content, nil
}

// Suggest asks the model for side's next move.
func (c *Client) Suggest(ctx context.Context, st shogi.State, side shogi.Side) (chat.Suggestion, error) {
	reply, err := c.Complete(ctx, Messages(st, side))
	if err != nil {
		return chat.Suggestion{}, err
	}
	return chat.Suggestion{Move: ExtractMove(reply), Raw: reply}, nil
}
