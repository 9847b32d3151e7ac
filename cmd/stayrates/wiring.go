package main

import (
	"context"
	"log/slog"
	"time"

	"stayrates/internal/app/commands"
	availabilityapp "stayrates/internal/app/handlers/availability"
	bookingapp "stayrates/internal/app/handlers/booking"
	quotesapp "stayrates/internal/app/handlers/quotes"
	"stayrates/internal/app/handlers/support"
	"stayrates/internal/app/middleware"
	"stayrates/internal/app/outbox"
	"stayrates/internal/app/queries"
	"stayrates/internal/app/uow"
	"stayrates/internal/infra/config"
	mongodb "stayrates/internal/infra/db/mongo"
	"stayrates/internal/infra/fixtures"
	ginserver "stayrates/internal/infra/http/gin"
	relay "stayrates/internal/infra/outbox"
	"stayrates/internal/infra/storage/memory"
)

type infrastructure struct {
	factory     uow.UoWFactory
	outbox      outbox.Outbox
	queue       relay.Queue
	idempotency middleware.IdempotencyStore
	sink        fixtures.Sink
	ready       func(ctx context.Context) error
	close       func()
}

func buildInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (infrastructure, error) {
	if cfg.StoreMode == config.StoreMongo {
		return buildMongo(ctx, cfg, logger)
	}
	store := memory.NewStore(cfg.DefaultTimeZone)
	box := memory.NewOutbox()
	return infrastructure{
		factory:     memory.NewFactory(store, box),
		outbox:      box,
		queue:       box,
		idempotency: memory.NewIdempotencyStore(),
		sink:        store,
		ready:       func(context.Context) error { return nil },
		close:       func() {},
	}, nil
}

func buildMongo(ctx context.Context, cfg config.Config, logger *slog.Logger) (infrastructure, error) {
	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return infrastructure{}, err
	}
	rateStore := mongodb.NewRateStore(client.DB, cfg.DefaultTimeZone)
	if err := rateStore.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo index setup failed", "error", err)
	}
	outboxStore, err := relay.NewStore(ctx, client.DB)
	if err != nil {
		return infrastructure{}, err
	}
	idStore, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return infrastructure{}, err
	}
	return infrastructure{
		factory: mongodb.Factory{
			DB:          client.DB,
			RatesStore:  rateStore,
			BookingRepo: mongodb.NewBookingRepository(client.DB),
		},
		outbox:      outboxStore,
		queue:       outboxStore,
		idempotency: idStore,
		sink:        rateStore,
		ready:       client.Ping,
		close: func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Error("mongo disconnect failed", "error", err)
			}
		},
	}, nil
}

func buildApplication(cfg config.Config, infra infrastructure, logger *slog.Logger) ginserver.Handlers {
	encoder := outbox.JSONEventEncoder{}
	conflicts := &support.ConflictReporter{Logger: logger, Outbox: infra.outbox, Encoder: encoder}

	commandBus := commands.NewInMemoryBus()
	bookingHandler := &bookingapp.RequestBookingHandler{
		UoWFactory: infra.factory,
		Outbox:     infra.outbox,
		Encoder:    encoder,
		Conflicts:  conflicts,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), bookingHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		UoWFactory: infra.factory,
		Conflicts:  conflicts,
	})
	queries.RegisterHandler(queryBus, quotesapp.GetQuoteQuery{}.Key(), &quotesapp.GetQuoteHandler{
		UoWFactory: infra.factory,
		Conflicts:  conflicts,
	})
	queries.RegisterHandler(queryBus, quotesapp.GetRateQuery{}.Key(), &quotesapp.GetRateHandler{
		UoWFactory: infra.factory,
		Conflicts:  conflicts,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.CommandLogging(logger),
		middleware.Idempotency(infra.idempotency, middleware.IdempotencyOptions{TTL: cfg.IdempotencyTTL}),
		middleware.Validation(),
		middleware.Transaction(infra.factory, nil),
		middleware.OutboxFlush(infra.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(),
	)

	return ginserver.Handlers{
		Booking:      ginserver.BookingHandler{Commands: commandBusWithMiddleware, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Pricing:      ginserver.PricingHandler{Queries: queryBusWithMiddleware, Logger: logger},
	}
}
