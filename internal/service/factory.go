package service

import (
	"vibez.app/engine/common/llm"
	"vibez.app/engine/core/config"
	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/store"
)

type Services struct {
	stores  *store.Stores
	engine  *engine.Engine
	chatLLM llm.Client
	synLLM  llm.Client
	events  EventPublisher
	cfg     config.Config
}

func NewServices(stores *store.Stores, eng *engine.Engine, chatLLM, synLLM llm.Client, events EventPublisher, cfg config.Config) *Services {
	return &Services{
		stores:  stores,
		engine:  eng,
		chatLLM: chatLLM,
		synLLM:  synLLM,
		events:  events,
		cfg:     cfg,
	}
}

func (s *Services) Chat() *ChatService {
	return NewChatService(s.engine, s.chatLLM, s.cfg.Dashboards.SearchLookbackDays)
}

func (s *Services) Synthesis() *SynthesisService {
	return NewSynthesisService(
		s.stores.Messages(),
		s.stores.Reports(),
		s.synLLM,
		s.events,
		s.cfg.Synthesis.SubjectName,
		s.cfg.Synthesis.SubjectDossier,
		s.cfg.Dashboards.ScanRowLimit,
	)
}
