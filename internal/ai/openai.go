package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"opentrends/internal/apperr"

	openai "github.com/sashabaranov/go-openai"
)

// Translation is a localized rendition of an item's display text.
type Translation struct {
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
}

// Generator defines the text generation interface used by the adaptation registry.
type Generator interface {
	// Adapt suggests how to adapt a product to the Brazilian market.
	Adapt(ctx context.Context, name, description string) (string, error)
	// Translate renders name, tagline and description in language.
	Translate(ctx context.Context, name, tagline, description, language string) (Translation, error)
}

// OpenAIClient implements Generator using OpenAI Chat Completions API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string // optional
	MaxTokens int
}

// NewOpenAI returns nil when no API key is configured; callers treat a nil
// Generator as "generation unavailable".
func NewOpenAI(cfg Config) *OpenAIClient {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &OpenAIClient{client: c, model: model, maxTokens: maxTokens}
}

func (o *OpenAIClient) Adapt(ctx context.Context, name, description string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()
	description = truncateRunes(strings.TrimSpace(description), 1500)

	prompt := fmt.Sprintf(`Analise o SaaS "%s": "%s".
Sugira como adaptar este produto para o mercado brasileiro.
Considere:
1. Necessidades específicas do Brasil.
2. Concorrentes locais (se houver).
3. Sugestão de monetização no Brasil.

Responda em formato de tópicos curtos e diretos. Tom profissional e estratégico.`, name, description)

	out, err := o.create(ctx, "", prompt, false)
	if err != nil {
		slog.Error("openai: adapt item error", "name", name, "err", err)
		return "", apperr.New(apperr.GenerationFailed, "ai.adapt", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", apperr.New(apperr.GenerationFailed, "ai.adapt", errors.New("empty completion"))
	}
	return out, nil
}

func (o *OpenAIClient) Translate(ctx context.Context, name, tagline, description, language string) (Translation, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	sys := fmt.Sprintf(`
		Translate the product listing into %s.
		Keep brand and product names unchanged when they are proper nouns.
		Respond with a JSON object with exactly the keys "name", "tagline" and "description".
		`, langOrDefault(language))
	in, err := json.Marshal(Translation{Name: name, Tagline: tagline, Description: truncateRunes(description, 2000)})
	if err != nil {
		return Translation{}, err
	}
	out, err := o.create(ctx, sys, string(in), true)
	if err != nil {
		slog.Error("openai: translate item error", "name", name, "err", err)
		return Translation{}, apperr.New(apperr.GenerationFailed, "ai.translate", err)
	}
	tr, err := parseTranslation(out)
	if err != nil {
		return Translation{}, apperr.New(apperr.GenerationFailed, "ai.translate", err)
	}
	return tr, nil
}

func (o *OpenAIClient) create(ctx context.Context, system, user string, jsonOut bool) (string, error) {
	// Default timeout guard, if caller didn't set one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}
	var msgs []openai.ChatCompletionMessage
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		MaxTokens:   o.maxTokens,
		Temperature: 0.4,
	}
	if jsonOut {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// parseTranslation accepts a bare JSON object or one wrapped in a code fence.
func parseTranslation(s string) (Translation, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	var tr Translation
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &tr); err != nil {
		return Translation{}, fmt.Errorf("decode translation: %w", err)
	}
	if strings.TrimSpace(tr.Name) == "" && strings.TrimSpace(tr.Description) == "" {
		return Translation{}, errors.New("translation is empty")
	}
	return tr, nil
}

func truncateRunes(s string, n int) string {
	if len([]rune(s)) > n {
		return string([]rune(s)[:n])
	}
	return s
}

func langOrDefault(lang string) string {
	l := strings.TrimSpace(lang)
	if l == "" {
		return "Portuguese"
	}
	return l
}
