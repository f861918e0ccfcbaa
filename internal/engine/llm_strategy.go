package engine

import (
	"context"

	"github.com/comigor/chatbot-go/internal/config"
	"github.com/comigor/chatbot-go/internal/llm"
)

// llmStrategy delegates to an OpenAI compatible chat model and reports a
// fixed confidence, so a near-exact best match still wins over it.
type llmStrategy struct {
	client     llm.Client
	cfg        config.LLMConfig
	confidence float64
}

func newLLMStrategy(client llm.Client, cfg config.LLMConfig, params map[string]any) (*llmStrategy, error) {
	confidence, err := paramUnit(params, "confidence", 0.5)
	if err != nil {
		return nil, err
	}
	return &llmStrategy{client: client, cfg: cfg, confidence: confidence}, nil
}

func (l *llmStrategy) Name() string { return config.StrategyLLM }

func (l *llmStrategy) Process(ctx context.Context, _ Storage, input string) (Match, error) {
	text, err := llm.Complete(ctx, l.client, l.cfg, input)
	if err != nil {
		return Match{}, err
	}
	return Match{Text: text, Confidence: l.confidence, Strategy: l.Name()}, nil
}
