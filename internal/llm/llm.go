package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/comigor/chatbot-go/internal/config"
	"github.com/sashabaranov/go-openai"
)

const defaultSystemPrompt = "You are a friendly chatbot. Answer in one or two short sentences."

// ErrEmptyCompletion is returned when the model answers without any text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Client is the part of *openai.Client the llm strategy calls.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient creates a new OpenAI client
func NewClient(cfg config.LLMConfig) *openai.Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return openai.NewClientWithConfig(config)
}

// Complete sends a single user utterance, preceded by the configured system
// prompt, and returns the first choice's text.
func Complete(ctx context.Context, client Client, cfg config.LLMConfig, utterance string) (string, error) {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: utterance},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
