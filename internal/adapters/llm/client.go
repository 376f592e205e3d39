// Package llm talks to hosted text-generation APIs over plain HTTP.
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

	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/config"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultGeminiModel   = "gemini-1.5-flash"

	maxErrorBody = 512
)

var (
	_ domain.InferenceService = (*Client)(nil)
	_ domain.InferenceService = Disabled{}
)

var ErrUnknownProvider = errors.New("llm: unknown provider")

type Client struct {
	provider string
	apiKey   string
	model    string
	baseURL  string
	http     *http.Client
	logger   *logrus.Logger
}

func New(cfg config.LLMConfig, logger *logrus.Logger) (*Client, error) {
	c := &Client{
		provider: strings.ToLower(cfg.Provider),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}

	switch c.provider {
	case "", ProviderOpenAI:
		c.provider = ProviderOpenAI
		if c.model == "" {
			c.model = defaultOpenAIModel
		}
		if c.baseURL == "" {
			c.baseURL = defaultOpenAIBaseURL
		}
	case ProviderGemini:
		if c.model == "" {
			c.model = defaultGeminiModel
		}
		if c.baseURL == "" {
			c.baseURL = defaultGeminiBaseURL
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	if c.http.Timeout <= 0 {
		c.http.Timeout = 30 * time.Second
	}
	return c, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, false)
}

func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema domain.Schema, out any) error {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("llm: encode schema: %w", err)
	}

	prompt = fmt.Sprintf("%s\n\nRespond only with a JSON object matching this JSON schema:\n%s", prompt, encoded)

	text, err := c.complete(ctx, prompt, true)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripCodeFence(text)), out); err != nil {
		return fmt.Errorf("llm: decode structured answer: %w", err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	start := time.Now()

	var (
		text string
		err  error
	)
	if c.provider == ProviderGemini {
		text, err = c.callGemini(ctx, prompt, jsonMode)
	} else {
		text, err = c.callOpenAI(ctx, prompt, jsonMode)
	}

	log := c.logger.WithFields(logrus.Fields{
		"provider": c.provider,
		"model":    c.model,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		log.WithError(err).Warn("llm: request failed")
		return "", fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn("llm: empty completion")
		return "", fmt.Errorf("%w: empty completion", domain.ErrInferenceUnavailable)
	}

	log.Debug("llm: completion received")
	return text, nil
}

func (c *Client) callOpenAI(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	reqBody := map[string]any{
		"model": c.model,
		"messages": []message{
			{Role: "system", Content: "You are an expert in carbon footprint analysis and sustainable living."},
			{Role: "user", Content: prompt},
		},
		"temperature": 0.3,
	}
	if jsonMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := c.post(ctx, c.baseURL+"/chat/completions", headers, reqBody, &parsed); err != nil {
		return "", err
	}

	if len(parsed.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) callGemini(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	generationConfig := map[string]any{"temperature": 0.3}
	if jsonMode {
		generationConfig["responseMimeType"] = "application/json"
	}

	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": generationConfig,
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	if err := c.post(ctx, endpoint, nil, reqBody, &parsed); err != nil {
		return "", err
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content in Gemini response")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (c *Client) post(ctx context.Context, endpoint string, headers map[string]string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s API error (status %d): %s", c.provider, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", domain.ErrInferenceUnavailable
}

func (Disabled) GenerateStructured(context.Context, string, domain.Schema, any) error {
	return domain.ErrInferenceUnavailable
}
