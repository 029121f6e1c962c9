package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"

	"github.com/skovert/docquery/helper"
)

// OllamaConfig configures the Ollama-backed client
type OllamaConfig struct {
	BaseURL     string
	Model       string
	EmbedModel  string
	Temperature float64
	MaxTokens   int
	// EmbedRate limits embedding requests per second; 0 disables limiting
	EmbedRate float64
}

func (c *OllamaConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "mistral"
	}
	if c.EmbedModel == "" {
		c.EmbedModel = "nomic-embed-text:latest"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
}

// OllamaClient implements Client against a local Ollama server
type OllamaClient struct {
	config  OllamaConfig
	chat    *ollama.LLM
	embed   *ollama.LLM
	limiter *rate.Limiter
}

// NewOllamaClient creates a client for the configured Ollama server
func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	config.applyDefaults()

	chat, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, helper.NewError("initialize chat model", err)
	}

	embed, err := ollama.New(
		ollama.WithModel(config.EmbedModel),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, helper.NewError("initialize embedding model", err)
	}

	var limiter *rate.Limiter
	if config.EmbedRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.EmbedRate), 1)
	}

	return &OllamaClient{
		config:  config,
		chat:    chat,
		embed:   embed,
		limiter: limiter,
	}, nil
}

// Embed generates one embedding vector for the text
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, helper.NewError("rate limit wait", err)
		}
	}

	embeddings, err := c.embed.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, helper.NewError("create embedding", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, helper.NewError("create embedding", fmt.Errorf("no embedding returned"))
	}

	return embeddings[0], nil
}

// Generate returns a free-form completion grounded on contextBlock
func (c *OllamaClient) Generate(ctx context.Context, prompt string, contextBlock string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	if contextBlock != "" {
		content = append([]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, contextBlock),
		}, content...)
	}

	response, err := c.chat.GenerateContent(ctx, content,
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
	)
	if err != nil {
		return "", helper.NewError("generate", err)
	}
	if len(response.Choices) == 0 {
		return "", helper.NewError("generate", fmt.Errorf("no completion returned"))
	}

	return response.Choices[0].Content, nil
}

// GenerateStructured requests JSON output and validates that the response
// parses. Model chatter around the JSON object is stripped; anything that
// still fails to parse is reported as ErrMalformedResponse.
func (c *OllamaClient) GenerateStructured(ctx context.Context, prompt string, systemInstruction string) (json.RawMessage, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemInstruction),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := c.chat.GenerateContent(ctx, content,
		llms.WithTemperature(0),
		llms.WithMaxTokens(c.config.MaxTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, helper.NewError("generate structured", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion returned", ErrMalformedResponse)
	}

	raw := ExtractJSON(response.Choices[0].Content)
	if raw == nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedResponse, truncate(response.Choices[0].Content, 120))
	}

	return raw, nil
}

// ExtractJSON extracts the outermost JSON object from model output,
// returning nil when no valid object is present.
func ExtractJSON(text string) json.RawMessage {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}

	candidate := []byte(text[start : end+1])
	if !json.Valid(candidate) {
		return nil
	}

	return json.RawMessage(candidate)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
