package engine

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed corpus/*.yml
var corpusFS embed.FS

// ErrUnknownCategory is returned when a requested corpus category is not bundled.
var ErrUnknownCategory = errors.New("engine: unknown corpus category")

type corpusFile struct {
	Categories    []string   `yaml:"categories"`
	Conversations [][]string `yaml:"conversations"`
}

// Categories lists the bundled corpus categories in file order.
func Categories() []string {
	entries, _ := corpusFS.ReadDir("corpus")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	return out
}

// LoadCorpus returns the conversations of the requested categories, or of
// every bundled category when none are requested.
func LoadCorpus(categories []string) ([][]string, error) {
	if err := checkCategories(categories); err != nil {
		return nil, err
	}
	available := Categories()

	var conversations [][]string
	for _, name := range available {
		if len(categories) > 0 && !slices.Contains(categories, name) {
			continue
		}
		data, err := corpusFS.ReadFile("corpus/" + name + ".yml")
		if err != nil {
			return nil, fmt.Errorf("engine: read corpus %s: %w", name, err)
		}
		var f corpusFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("engine: parse corpus %s: %w", name, err)
		}
		conversations = append(conversations, f.Conversations...)
	}
	return conversations, nil
}

func checkCategories(categories []string) error {
	available := Categories()
	for _, c := range categories {
		if !slices.Contains(available, c) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
	}
	return nil
}
