package llm

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"markbench/internal/config"
	"markbench/internal/port"
)

// Client routes grading calls to the configured provider backends and
// meters usage. It implements port.LLMClient.
type Client struct {
	generators map[string]Generator

	mu         sync.Mutex
	limiters   map[string]*rateLimiter
	totalCalls int
	totalCost  float64
}

// NewClient builds a Client from the application LLM config. Providers
// without an API key are skipped; callers detect an empty client through
// AvailableProviders.
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	gens := map[string]Generator{}
	for _, pc := range []config.LLMProviderConfig{cfg.Anthropic, cfg.OpenAI, cfg.Gemini} {
		pc := pc
		if pc.APIKey == "" {
			log.Printf("llm: no API key for %s, provider disabled", pc.Provider)
			continue
		}
		gen, err := newGenerator(&pc)
		if err != nil {
			return nil, fmt.Errorf("initializing %s backend: %w", pc.Provider, err)
		}
		gens[pc.Provider] = gen
	}
	return NewClientWithGenerators(gens), nil
}

// NewClientWithGenerators builds a Client over explicit generators (for tests).
func NewClientWithGenerators(gens map[string]Generator) *Client {
	return &Client{
		generators: gens,
		limiters:   map[string]*rateLimiter{},
	}
}

// Grade sends one grading prompt to the requested provider, enforcing the
// grader's rate limit and pricing the call from reported token counts.
func (c *Client) Grade(ctx context.Context, req port.GradeRequest) (*port.GradeResponse, error) {
	gen, ok := c.generators[req.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", req.Provider)
	}

	if err := c.limiterFor(req.Provider, req.Model).wait(ctx, req.RateLimit); err != nil {
		return nil, err
	}

	start := time.Now()
	completion, err := gen.Complete(ctx, Request{
		Model:        req.Model,
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	cost := EstimateCost(req.Provider, req.Model, completion.InputTokens, completion.OutputTokens)

	c.mu.Lock()
	c.totalCalls++
	c.totalCost += cost
	c.mu.Unlock()

	return &port.GradeResponse{
		Content: completion.Content,
		Usage: port.Usage{
			InputTokens:      completion.InputTokens,
			OutputTokens:     completion.OutputTokens,
			Cost:             cost,
			ResponseTimeSecs: elapsed.Seconds(),
		},
		Timestamp: time.Now(),
	}, nil
}

// AvailableProviders returns the configured provider names, sorted.
func (c *Client) AvailableProviders() []string {
	names := make([]string, 0, len(c.generators))
	for name := range c.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EstimateCost prices a hypothetical call.
func (c *Client) EstimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	return EstimateCost(provider, model, inputTokens, outputTokens)
}

// TotalUsage reports calls and cost metered across the client's lifetime.
func (c *Client) TotalUsage() (calls int, cost float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCalls, c.totalCost
}

func (c *Client) limiterFor(provider, model string) *rateLimiter {
	key := provider + "/" + model
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[key]
	if !ok {
		l = &rateLimiter{}
		c.limiters[key] = l
	}
	return l
}
