package main

import (
	"fmt"
	"math/rand"

	"github.com/jonboulle/clockwork"

	"github.com/draftday/mockdraft/internal/draft"
	"github.com/draftday/mockdraft/internal/gateway"
	"github.com/draftday/mockdraft/internal/httpapi"
	"github.com/draftday/mockdraft/internal/notify"
	"github.com/draftday/mockdraft/internal/pickorder"
	"github.com/draftday/mockdraft/internal/seeds"
	"github.com/draftday/mockdraft/internal/store"
	"github.com/draftday/mockdraft/internal/trade"
)

// Services holds every wired component of the running server.
type Services struct {
	Store   store.Store
	Drafts  *draft.App
	Trades  *trade.App
	Gateway *gateway.Manager
	WS      *gateway.Handler
	API     *httpapi.Server
	Relay   *notify.Relay
}

func setupServices(config *Config) (*Services, error) {
	// Wire up dependency injection chain:
	// store → seed repository → builder/heuristic → apps → HTTP surface.

	var st store.Store
	switch config.Store.Backend {
	case "postgres":
		database, err := setupDatabase()
		if err != nil {
			return nil, err
		}
		st = store.NewPostgresStore(database)
	case "memory":
		st = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}

	clock := clockwork.NewRealClock()
	seedRepo := seeds.NewFileRepository(config.Seeds.Dir)
	builder := pickorder.NewBuilder(seedRepo)
	heuristic := draft.NewHeuristic(draft.DefaultAutopickConfig())
	timers := draft.NewTimerRegistry(clock)
	rng := rand.New(rand.NewSource(clock.Now().UnixNano()))

	gw := gateway.NewManager(gateway.DefaultConfig())

	sinks := []notify.Sink{gw}
	if len(config.Notify.WebhookURLs) > 0 {
		sinks = append(sinks, notify.NewWebhookSink(config.Notify.WebhookURLs))
	}
	notifier := notify.NewFanout(clock, sinks...)

	drafts := draft.NewApp(st, seedRepo, builder, heuristic, notifier, timers, clock, rng)
	trades := trade.NewApp(st, trade.NewValuator(trade.DefaultValuationConfig()), notifier, clock)

	services := &Services{
		Store:   st,
		Drafts:  drafts,
		Trades:  trades,
		Gateway: gw,
		WS:      gateway.NewHandler(gw),
		API:     httpapi.NewServer(drafts, trades),
	}

	if config.Notify.NATS.Enabled {
		jsCfg := notify.DefaultJetStreamConfig()
		if config.Notify.NATS.URL != "" {
			jsCfg.URL = config.Notify.NATS.URL
		}
		if config.Notify.NATS.Stream != "" {
			jsCfg.StreamName = config.Notify.NATS.Stream
		}
		if config.Notify.NATS.SubjectPrefix != "" {
			jsCfg.SubjectPrefix = config.Notify.NATS.SubjectPrefix
		}

		publisher, err := notify.NewJetStreamPublisher(jsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}
		services.Relay = notify.NewRelay(st, publisher, notify.DefaultRelayConfig())
	}

	return services, nil
}
