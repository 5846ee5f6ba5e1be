package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"

	botconfig "github.com/convobot/convobot/config"
	"github.com/convobot/convobot/internal/backend"
	bothandler "github.com/convobot/convobot/internal/bot/handler"
	"github.com/convobot/convobot/internal/httputil"
	"github.com/convobot/convobot/internal/knowledge"
	"github.com/convobot/convobot/internal/messages"
	"github.com/convobot/convobot/internal/recognizer"
	"github.com/convobot/convobot/internal/router"
	"github.com/convobot/convobot/internal/session"
	"github.com/convobot/convobot/internal/tasks"
	"github.com/convobot/convobot/pkg/dialog"
	"github.com/convobot/convobot/pkg/events"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[botconfig.BotConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	serviceOpts := []frame.Option{
		frame.WithConfig(&cfg),
		frame.WithName("convobot"),
		frame.WithRegisterPublisher(eventRef, eventURL),
	}
	if cfg.SessionStore == "database" {
		serviceOpts = append(serviceOpts, frame.WithDatastore())
	}

	ctx, srv := frame.NewService(serviceOpts...)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	pub := events.NewPublisher(srv.QueueManager(), "bot", eventRef)

	catalog := dialog.NewCatalog(cfg.MessageDir, messages.Defaults())
	if err := catalog.LoadAll(); err != nil {
		log.Printf("warning: loading messages: %v", err)
	}
	if cfg.MessageDir != "" {
		_ = pool.Submit(ctx, func() {
			if err := catalog.WatchAndReload(ctx.Done()); err != nil {
				log.Printf("warning: message watcher stopped: %v", err)
			}
		})
	}

	var store dialog.Store
	if cfg.SessionStore == "database" {
		store = session.NewRepository(
			srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"),
		)
	} else {
		memStore := dialog.NewMemoryStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
		memStore.StartReaper(ctx, pool)
		store = memStore
	}

	guard := dialog.NewGuard(
		catalog.Render(messages.KeyHelp, nil),
		catalog.Render(messages.KeyCancelled, nil),
	)

	rec := recognizer.New(recognizer.Config{
		AppID:    cfg.LuisAppID,
		APIKey:   cfg.LuisAPIKey,
		Hostname: cfg.LuisHostname,
	})
	kb := knowledge.New(knowledge.Config{
		KnowledgeBaseID: cfg.QnAKnowledgeBaseID,
		EndpointKey:     cfg.QnAEndpointKey,
		Host:            cfg.QnAHost,
	})
	userSvc := backend.New(cfg.UserServiceURL)

	runner := dialog.NewRunner(store, guard, pub)
	if err := runner.Register(tasks.NewBuilder(userSvc, catalog, pub).All()...); err != nil {
		log.Fatalf("registering task dialogs: %v", err)
	}
	rootDialog, err := router.New(catalog, rec, kb, pub)
	if err != nil {
		log.Fatalf("building root dialog: %v", err)
	}
	if err := runner.Register(rootDialog); err != nil {
		log.Fatalf("registering root dialog: %v", err)
	}
	if err := runner.SetRoot(router.DialogID); err != nil {
		log.Fatalf("setting root dialog: %v", err)
	}

	botHdlr := bothandler.NewBotHandler(runner, catalog, pub)

	mux := http.NewServeMux()
	mux.Handle("/api/messages", httputil.BearerAuth(cfg.AppSecret, botHdlr))

	srv.Init(ctx, frame.WithHTTPHandler(httputil.H2CHandler(mux)))

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
