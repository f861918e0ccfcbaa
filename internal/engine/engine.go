// Package engine turns an utterance into the best-fitting known response.
//
// An Engine is built once per process, trained on startup from the bundled
// corpus plus a list of scripted exchanges, and then shared by every front
// end. Respond never fails: whatever goes wrong inside a strategy is logged
// and replaced by FallbackResponse.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/comigor/chatbot-go/internal/config"
	"github.com/comigor/chatbot-go/internal/llm"
	"github.com/comigor/chatbot-go/internal/logger"
	"github.com/patrickmn/go-cache"
)

// FallbackResponse is returned whenever a strategy fails.
const FallbackResponse = "Sorry, I had trouble understanding that. Please try again."

// ErrNotInitialized is returned by internal calls made before Initialize.
var ErrNotInitialized = errors.New("engine: not initialized")

type options struct {
	llmClient  llm.Client
	llmConfig  config.LLMConfig
	strategies []Strategy
}

// Option customizes an Engine.
type Option func(*options)

// WithLLM makes the llm strategy available.
func WithLLM(client llm.Client, cfg config.LLMConfig) Option {
	return func(o *options) {
		o.llmClient = client
		o.llmConfig = cfg
	}
}

// WithStrategy appends a strategy after the configured ones.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategies = append(o.strategies, s)
	}
}

// Engine is the process-wide responder.
type Engine struct {
	cfg         config.BotConfig
	storagePath string
	strategies  []Strategy
	cache       *cache.Cache

	mu    sync.RWMutex
	store *Store
}

// New builds an engine from configuration. It does not touch storage; call
// Initialize before serving.
func New(cfg config.BotConfig, storagePath string, opts ...Option) (*Engine, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := checkCategories(cfg.Corpus); err != nil {
		return nil, err
	}

	strategies := make([]Strategy, 0, len(cfg.Strategies)+len(o.strategies))
	for _, sc := range cfg.Strategies {
		s, err := buildStrategy(sc, o)
		if err != nil {
			return nil, fmt.Errorf("engine: strategy %s: %w", sc.Name, err)
		}
		strategies = append(strategies, s)
	}
	strategies = append(strategies, o.strategies...)
	if len(strategies) == 0 {
		return nil, errors.New("engine: no strategies configured")
	}

	e := &Engine{
		cfg:         cfg,
		storagePath: storagePath,
		strategies:  strategies,
	}
	if cfg.CacheTTL > 0 {
		e.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return e, nil
}

// Name returns the bot's configured identity.
func (e *Engine) Name() string { return e.cfg.Name }

// Initialize opens storage and runs the training pass. It blocks until
// training completes.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initializeLocked(ctx)
}

func (e *Engine) initializeLocked(ctx context.Context) error {
	if e.store == nil {
		store, err := OpenStore(ctx, e.storagePath)
		if err != nil {
			return err
		}
		e.store = store
	}

	start := time.Now()
	conversations, err := LoadCorpus(e.cfg.Corpus)
	if err != nil {
		return err
	}
	if len(e.cfg.Scripted) > 0 {
		conversations = append(conversations, e.cfg.Scripted)
	}
	if err := e.store.Train(ctx, conversations); err != nil {
		return err
	}

	count, err := e.store.Count(ctx)
	if err != nil {
		return err
	}
	logger.L.Info("chatbot trained", "name", e.cfg.Name, "storage", e.store.Path(), "statements", count, "took", time.Since(start))
	return nil
}

// Respond returns a non-empty response for text. It never fails.
func (e *Engine) Respond(ctx context.Context, text string) string {
	// strategies may tell apart inputs that normalize equally
	key := strings.TrimSpace(text)
	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			return v.(string)
		}
	}

	resp, err := e.respond(ctx, text)
	if err != nil {
		logger.L.Warn("failed to get bot response", "error", err, "input", text)
		return FallbackResponse
	}

	if e.cache != nil {
		e.cache.SetDefault(key, resp)
	}
	return resp
}

func (e *Engine) respond(ctx context.Context, text string) (resp string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: strategy panic: %v", r)
		}
	}()

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.store == nil {
		return "", ErrNotInitialized
	}

	var best Match
	for i, s := range e.strategies {
		m, err := s.Process(ctx, e.store, text)
		if err != nil {
			return "", fmt.Errorf("engine: %s: %w", s.Name(), err)
		}
		if i == 0 || m.Confidence > best.Confidence || (m.Confidence == best.Confidence && isEmpty(best) && !isEmpty(m)) {
			best = m
		}
	}
	logger.L.Debug("strategy selected", "strategy", best.Strategy, "confidence", best.Confidence)

	if isEmpty(best) {
		return e.cfg.DefaultResponse, nil
	}
	return best.Text, nil
}

func isEmpty(m Match) bool {
	return strings.TrimSpace(m.Text) == ""
}

// Reset drops every trained statement and trains again. Any failure is
// logged and reported as false.
func (e *Engine) Reset(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("chatbot reset panicked", "panic", r)
			ok = false
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cache != nil {
		e.cache.Flush()
	}
	if e.store != nil {
		if err := e.store.Drop(ctx); err != nil {
			logger.L.Error("chatbot reset failed", "error", err)
			return false
		}
	}
	if err := e.initializeLocked(ctx); err != nil {
		logger.L.Error("chatbot reset failed", "error", err)
		return false
	}
	return true
}

// Close releases storage.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}
