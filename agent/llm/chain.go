package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
)

// Chain tries each provider in order and returns the first success. When all
// fail the individual errors are aggregated into one ErrModelInvoke.
type Chain struct {
	providers []Provider

	mu   sync.Mutex
	last string
}

func NewChainOf(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Complete(ctx context.Context, req Request) (*Completion, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", contractx.ErrModelInvoke)
	}

	var errs []error
	for _, p := range c.providers {
		completion, err := p.Complete(ctx, req)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed, trying next")
			errs = append(errs, err)
			continue
		}

		c.mu.Lock()
		c.last = p.Name()
		c.mu.Unlock()
		return completion, nil
	}

	return nil, fmt.Errorf("%w: %w", contractx.ErrModelInvoke, errors.Join(errs...))
}

// LastProvider reports which provider served the most recent completion.
func (c *Chain) LastProvider() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
