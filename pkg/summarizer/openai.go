package summarizer

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	// Summaries are a few sentences; 200 tokens is plenty and keeps a
	// runaway response from bloating the retained context.
	summaryMaxTokens = 200
)

// chatCompleter is the slice of the OpenAI client the summarizer needs,
// extracted so tests can substitute it.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig configures the OpenAI-backed summarizer.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API. Falls back to the
	// OPENAI_API_KEY environment variable.
	APIKey string
	// Model selects the completion model (default gpt-4o-mini).
	Model string
	// Instruction is the caller-supplied summarization prompt
	// (default DefaultInstruction).
	Instruction string
}

// OpenAIClient summarizes conversation spans via the OpenAI chat API.
type OpenAIClient struct {
	client      chatCompleter
	model       string
	instruction string
}

// NewOpenAI creates an OpenAI summarizer client.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	instruction := cfg.Instruction
	if instruction == "" {
		instruction = DefaultInstruction
	}

	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		instruction: instruction,
	}, nil
}

// Name implements Client.
func (c *OpenAIClient) Name() string { return "openai" }

// Summarize implements Client. The prior summary, when present, is folded
// into the prompt as context so the model returns one coherent replacement
// rather than an addendum.
func (c *OpenAIClient) Summarize(ctx context.Context, messages []Message, priorSummary string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   summaryMaxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: c.buildPrompt(messages, priorSummary),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", ErrEmptyResponse
	}
	return summary, nil
}

func (c *OpenAIClient) buildPrompt(messages []Message, priorSummary string) string {
	var sb strings.Builder
	sb.WriteString(c.instruction)
	sb.WriteString("\n\n")

	if priorSummary != "" {
		sb.WriteString("Earlier context already summarized (fold this into the new summary):\n")
		sb.WriteString(priorSummary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Conversation:\n")
	for _, msg := range messages {
		sb.WriteString(strings.ToUpper(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nSummary:")
	return sb.String()
}
