package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/comigor/chatbot-go/internal/config"
	"github.com/spf13/cast"
)

var (
	// ErrUnknownStrategy is returned by New for a strategy name it cannot build.
	ErrUnknownStrategy = errors.New("engine: unknown strategy")

	// ErrLLMUnavailable is returned by New when the llm strategy is listed but
	// no client was given with WithLLM.
	ErrLLMUnavailable = errors.New("engine: llm strategy configured without an llm client")
)

// Match is a strategy's answer together with how sure it is, in [0, 1].
type Match struct {
	Text       string
	Confidence float64
	Strategy   string
}

// Strategy ranks a response for an utterance.
type Strategy interface {
	Name() string
	Process(ctx context.Context, storage Storage, input string) (Match, error)
}

func buildStrategy(sc config.StrategyConfig, o *options) (Strategy, error) {
	switch sc.Name {
	case config.StrategyBestMatch:
		return newBestMatch(sc.Params)
	case config.StrategySpecificResponse:
		return newSpecificResponse(sc.Params)
	case config.StrategyLLM:
		if o.llmClient == nil {
			return nil, ErrLLMUnavailable
		}
		return newLLMStrategy(o.llmClient, o.llmConfig, sc.Params)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, sc.Name)
	}
}

func paramString(params map[string]any, key, def string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", fmt.Errorf("engine: param %s: %w", key, err)
	}
	return s, nil
}

func paramUnit(params map[string]any, key string, def float64) (float64, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("engine: param %s: %w", key, err)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("engine: param %s must be within [0, 1], got %v", key, f)
	}
	return f, nil
}
