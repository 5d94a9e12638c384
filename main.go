package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/config"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/controller"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/database"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/event"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/event/listener"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/logger"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/metrics"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/presence"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/router"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/socketio"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/gormstore"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/memstore"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/mongostore"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const eventsQueue = "messaging_events"

type backend struct {
	store     store.Backend
	directory store.Directory
	db        *gorm.DB
	close     func()
}

func main() {
	config.LoadDotEnv()
	logger.Init(config.Default("APP_ENV", "development"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	be, err := openBackend(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("storage backend unavailable")
	}
	defer be.close()
	log.Info().Str("backend", be.store.Name()).Msg("storage backend selected")

	redisClients, err := database.RedisConnect(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, presence and socket.io stay local")
		redisClients = map[int]*redis.Client{}
	}
	defer database.CloseRedis(redisClients)

	tracker := openPresence(redisClients[database.RedisPresenceDB])

	enforcer, err := database.Casbin(be.db)
	if err != nil {
		log.Fatal().Err(err).Msg("casbin enforcer")
	}

	registry := metrics.NewRegistry()
	actions := metrics.NewActions(registry)

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "roommatch-messaging",
	})
	rest.Use(recover.New())
	rest.Use(cors.New())

	socket := socketio.Init(rest, socketio.Config{
		JWTKey:   config.Config("JWT_ACCESS_KEY"),
		Redis:    redisClients[database.RedisSocketDB],
		Presence: tracker,
		Debug:    config.Bool("SOCKET_DEBUG", false),
	})

	notifiers := messaging.Notifiers{socket}

	broker, eventLog := openBroker()
	if broker != nil {
		notifiers = append(notifiers, event.NewPublisher(broker, eventsQueue))
	}

	service := messaging.NewService(messaging.Options{
		Backend:    be.store,
		Directory:  be.directory,
		Authorizer: enforcer,
		Notifier:   notifiers,
		Presence:   tracker,
		PageSize:   config.Int("MESSAGES_PAGE_SIZE", messaging.DefaultPageSize),
	})
	dispatcher := messaging.NewDispatcher(service, actions)

	if broker != nil {
		commands := listener.NewMessaging(dispatcher, broker)
		go commands.Run(ctx)

		if err := broker.Subscribe(listener.Queue, commands.Channel); err != nil {
			log.Fatal().Err(err).Msg("subscribe messaging queue")
		}
		if err := broker.Replay(ctx); err != nil {
			log.Error().Err(err).Msg("event log replay failed")
		}
	}

	router.Rest(rest, controller.NewMessaging(dispatcher), registry)
	router.Socket(socket, dispatcher)

	go func() {
		if err := rest.Listen(fmt.Sprintf(":%s", config.Default("SERVER_PORT", "3000"))); err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	log.Info().Msg("shutting down")
	cancel()
	socket.Close()
	_ = rest.ShutdownWithTimeout(10 * time.Second)
	if broker != nil {
		_ = broker.Close()
	}
	if eventLog != nil {
		_ = eventLog.Close()
	}
}

// openBackend connects the configured store. When it cannot be reached and
// STORE_FALLBACK is "memory", the memory store is used instead.
func openBackend(ctx context.Context) (*backend, error) {
	driver := config.Default("STORE_DRIVER", "postgres")

	be, err := connectBackend(ctx, driver)
	if err == nil {
		return be, nil
	}
	if config.Default("STORE_FALLBACK", "none") != "memory" {
		return nil, err
	}

	log.Warn().Err(err).Str("driver", driver).Msg("falling back to the memory store, data will not survive a restart")
	return memoryBackend(), nil
}

func connectBackend(ctx context.Context, driver string) (*backend, error) {
	switch driver {
	case "postgres":
		db, err := database.PostgresConnect()
		if err != nil {
			return nil, err
		}
		return &backend{
			store:     gormstore.New(db),
			directory: gormstore.NewDirectory(db),
			db:        db,
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil

	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := database.MongoConnect(connectCtx)
		if err != nil {
			return nil, err
		}
		return &backend{
			store:     mongostore.New(db),
			directory: mongostore.NewDirectory(db),
			close: func() {
				_ = db.Client().Disconnect(context.Background())
			},
		}, nil

	case "memory":
		return memoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
}

func memoryBackend() *backend {
	return &backend{
		store:     memstore.New(),
		directory: memstore.NewDirectory(),
		close:     func() {},
	}
}

func openPresence(client *redis.Client) presence.Tracker {
	if config.Default("PRESENCE_DRIVER", "redis") == "redis" && client != nil {
		return presence.NewRedis(client, config.Duration("PRESENCE_TTL", 2*time.Minute), time.Now)
	}
	log.Info().Msg("presence tracked in memory")
	return presence.NewMemory(time.Now)
}

// openBroker dials RabbitMQ and declares the command and event queues. It
// returns nil when no broker is configured or reachable.
func openBroker() (*event.Broker, *event.Log) {
	host := config.Config("RABBITMQ_HOST")
	if host == "" {
		log.Warn().Msg("RABBITMQ_HOST not set, queue transport disabled")
		return nil, nil
	}

	mode := config.Default("EVENT_MODE", event.ModeDisable)
	var eventLog *event.Log
	if mode != event.ModeDisable {
		l, err := event.OpenLog(config.Default("EVENT_LOG_DIR", "./logs"))
		if err != nil {
			log.Error().Err(err).Msg("event log unavailable")
		} else {
			eventLog = l
		}
	}

	broker, err := event.Dial(event.Config{
		URL: event.URL(
			config.Config("RABBITMQ_USER"),
			config.Config("RABBITMQ_PASSWORD"),
			host,
			config.Default("RABBITMQ_PORT", "5672"),
		),
		Mode: mode,
		Log:  eventLog,
	})
	if err == nil {
		err = broker.Declare(listener.Queue, eventsQueue)
	}
	if err != nil {
		log.Error().Err(err).Msg("queue transport disabled")
		if broker != nil {
			_ = broker.Close()
		}
		if eventLog != nil {
			_ = eventLog.Close()
		}
		return nil, nil
	}
	return broker, eventLog
}
