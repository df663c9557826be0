package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements both capabilities against OpenAI's Chat
// Completions API (or any compatible endpoint, e.g. Ollama)
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a provider from config
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// ProposeCandidates asks the model to name candidate sources for the concept
func (p *OpenAIProvider) ProposeCandidates(ctx context.Context, req ProposeRequest) ([]Candidate, error) {
	raw, err := p.complete(ctx, "You name real, existing legal source URLs. You never invent URLs.", BuildProposePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("propose candidates: %w", err)
	}
	return ParseCandidates(raw)
}

// ExtractPassages asks the model for verbatim quotations from the excerpt
func (p *OpenAIProvider) ExtractPassages(ctx context.Context, req ExtractRequest) ([]ProposedPassage, error) {
	raw, err := p.complete(ctx, "You extract exact verbatim quotations from legal texts. You never paraphrase.", BuildExtractPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("extract passages: %w", err)
	}
	return ParsePassages(raw)
}

func (p *OpenAIProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1500
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2, // We want recall of real sources, not creativity
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
