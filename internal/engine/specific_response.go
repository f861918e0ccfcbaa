package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/comigor/chatbot-go/internal/config"
)

// specificResponse answers one exact input with a fixed output.
type specificResponse struct {
	input  string
	output string
}

func newSpecificResponse(params map[string]any) (*specificResponse, error) {
	in, err := paramString(params, "input_text", "")
	if err != nil {
		return nil, err
	}
	out, err := paramString(params, "output_text", "")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in) == "" || strings.TrimSpace(out) == "" {
		return nil, errors.New("engine: specific_response needs input_text and output_text")
	}
	return &specificResponse{input: strings.TrimSpace(in), output: out}, nil
}

func (s *specificResponse) Name() string { return config.StrategySpecificResponse }

func (s *specificResponse) Process(_ context.Context, _ Storage, input string) (Match, error) {
	if strings.EqualFold(strings.TrimSpace(input), s.input) {
		return Match{Text: s.output, Confidence: 1, Strategy: s.Name()}, nil
	}
	return Match{Strategy: s.Name()}, nil
}
