package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Satyam6024/superbryn-agent/agent/llm"
	"github.com/Satyam6024/superbryn-agent/agent/orchestrator"
	schedulex "github.com/Satyam6024/superbryn-agent/agent/schedule"
	storex "github.com/Satyam6024/superbryn-agent/agent/store"
	"github.com/Satyam6024/superbryn-agent/api"
	"github.com/Satyam6024/superbryn-agent/pkg/avatar"
	configx "github.com/Satyam6024/superbryn-agent/pkg/config"
	"github.com/Satyam6024/superbryn-agent/pkg/livekit"
	_ "github.com/Satyam6024/superbryn-agent/pkg/logger/autoload"
)

func main() {
	storeCfg := configx.MustNew[storex.Config]("SUPABASE")
	db := storex.New(*storeCfg)
	defer db.Close()

	livekitCfg := configx.MustNew[livekit.Config]("LIVEKIT")
	lk := livekit.New(*livekitCfg)

	avatarCfg := configx.MustNew[avatar.Config]("BEYOND_PRESENCE")
	avatarClient := avatar.New(*avatarCfg)

	llmCfg := configx.MustNew[llm.Config]("")
	chain := llm.NewChain(*llmCfg)

	scheduleCfg := configx.MustNew[schedulex.Config]("")
	generator := schedulex.NewGenerator(*scheduleCfg)

	sessionCfg := configx.MustNew[orchestrator.Config]("")
	factory := orchestrator.NewFactory(*sessionCfg, chain, db, generator)

	apiCfg := configx.MustNew[api.Config]("API")
	server := api.NewServer(*apiCfg, db, lk, avatarClient, factory)

	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("http server exited")
	}
}
