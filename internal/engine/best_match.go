package engine

import (
	"context"

	"github.com/comigor/chatbot-go/internal/config"
)

const defaultBestMatchResponse = "I am sorry, but I do not understand. I am still learning."

// bestMatch answers with the most frequent response to the known statement
// closest to the input.
type bestMatch struct {
	threshold       float64
	defaultResponse string
}

func newBestMatch(params map[string]any) (*bestMatch, error) {
	threshold, err := paramUnit(params, "maximum_similarity_threshold", 0.90)
	if err != nil {
		return nil, err
	}
	def, err := paramString(params, "default_response", defaultBestMatchResponse)
	if err != nil {
		return nil, err
	}
	return &bestMatch{threshold: threshold, defaultResponse: def}, nil
}

func (b *bestMatch) Name() string { return config.StrategyBestMatch }

func (b *bestMatch) Process(ctx context.Context, storage Storage, input string) (Match, error) {
	known, err := storage.KnownStatements(ctx)
	if err != nil {
		return Match{}, err
	}

	search := normalize(input)
	var closest Statement
	confidence := 0.0
	for _, st := range known {
		c := similarity(search, st.SearchText)
		if c > confidence {
			closest, confidence = st, c
		}
		// close enough, stop scanning
		if confidence >= b.threshold {
			break
		}
	}

	if confidence == 0 {
		return b.fallback(), nil
	}

	responses, err := storage.Responses(ctx, closest.Text)
	if err != nil {
		return Match{}, err
	}
	if len(responses) == 0 {
		return b.fallback(), nil
	}

	return Match{Text: responses[0].Text, Confidence: confidence, Strategy: b.Name()}, nil
}

func (b *bestMatch) fallback() Match {
	return Match{Text: b.defaultResponse, Confidence: 0, Strategy: b.Name()}
}
