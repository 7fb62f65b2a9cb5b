package orchestrator

import (
	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
	"github.com/Satyam6024/superbryn-agent/agent/llm"
	schedulex "github.com/Satyam6024/superbryn-agent/agent/schedule"
	toolx "github.com/Satyam6024/superbryn-agent/agent/tool"
)

// Factory is the explicit service bundle sessions are built from. Each
// session gets its own tool set; the store, chain and slot generator are
// shared.
type Factory struct {
	cfg   Config
	chain *llm.Chain
	store contractx.Store
	slots *schedulex.Generator
}

func NewFactory(cfg Config, chain *llm.Chain, store contractx.Store, slots *schedulex.Generator) *Factory {
	return &Factory{cfg: cfg, chain: chain, store: store, slots: slots}
}

// NewSession starts a conversation for one caller.
func (f *Factory) NewSession(hooks Hooks, timezone string) *Session {
	tools := toolx.New(f.store, f.slots)
	return NewSession(f.cfg, f.chain, tools, f.store, hooks, timezone)
}
