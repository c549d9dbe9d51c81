package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	Provider = "openrouter"

	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-4o-mini"
	DefaultTimeout = 90 * time.Second

	temperature = 0.3
	maxTokens   = 2000
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Generator talks to an OpenAI compatible chat completions endpoint.
type Generator struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

func NewGenerator(cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openrouter api key is required", ai.ErrConfiguration)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &Generator{
		client: client,
		model:  model,
		logger: logger.WithCommonFields(log, Provider, model),
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

func (g *Generator) GenerateContent(ctx context.Context, systemPrompt, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	var messages []message
	if system := strings.TrimSpace(systemPrompt); system != "" {
		messages = append(messages, message{Role: "system", Content: system})
	}
	messages = append(messages, message{Role: "user", Content: prompt})

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:       g.model,
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}

	body := resp.String()
	g.logger.Debug("openrouter response",
		zap.Int("status", resp.StatusCode()),
		zap.Int("response_length", utf8.RuneCountInString(body)),
	)

	if resp.IsError() {
		msg := gjson.Get(body, "error.message").String()
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("openrouter api error %d: %s", resp.StatusCode(), msg)
	}

	text := strings.TrimSpace(gjson.Get(body, "choices.0.message.content").String())
	if text == "" {
		return "", errors.New("openrouter api returned empty response")
	}

	return text, nil
}

func (g *Generator) Model() string {
	return g.model
}
