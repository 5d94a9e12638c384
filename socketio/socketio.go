// Package socketio serves Socket.IO clients. Every authenticated socket
// joins a room named after its user id, so events reach all of a user's
// tabs and, through the Redis adapter, every instance.
package socketio

import (
	"context"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/logger"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/presence"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	eiolog "github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/socket.io-go-redis/adapter"
	r_type "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type Config struct {
	JWTKey   string
	Redis    *redis.Client
	Presence presence.Tracker
	Debug    bool
}

type Server struct {
	io       *socket.Server
	presence presence.Tracker
}

func Init(app *fiber.App, cfg Config) *Server {
	eiolog.DEBUG = cfg.Debug

	options := socket.DefaultServerOptions()
	options.SetServeClient(true)
	options.SetAllowEIO3(true)
	options.SetPingInterval(25 * time.Second)
	options.SetPingTimeout(20 * time.Second)
	options.SetMaxHttpBufferSize(1_000_000)
	options.SetConnectTimeout(10 * time.Second)
	if cfg.Redis != nil {
		options.SetAdapter(&adapter.RedisAdapterBuilder{
			Redis: r_type.NewRedisClient(context.Background(), cfg.Redis),
			Opts:  &adapter.RedisAdapterOptions{},
		})
	}

	s := &Server{
		io:       socket.NewServer(nil, nil),
		presence: cfg.Presence,
	}

	s.io.Use(func(client *socket.Socket, next func(*socket.ExtendedError)) {
		token, ok := client.Conn().Request().Query().Get("token")
		if !ok {
			next(socket.NewExtendedError("unauthorized", nil))
			return
		}

		meta, err := utils.CheckAndExtractTokenMetadata(token, cfg.JWTKey)
		if err != nil || meta.Otp || !meta.Role.Valid() {
			next(socket.NewExtendedError("unauthorized", nil))
			return
		}

		client.Join(socket.Room(meta.ID))
		client.SetData(&messaging.Identity{
			ID:    meta.ID,
			Email: meta.Email,
			Name:  meta.Name,
			Role:  meta.Role,
		})
		next(nil)
	})

	handler := adaptor.HTTPHandler(s.io.ServeHandler(options))
	app.Get("/socket.io/", handler)
	app.Post("/socket.io/", handler)

	return s
}

// IO exposes the underlying server for event routing.
func (s *Server) IO() *socket.Server { return s.io }

// Identity returns the caller attached to client during the handshake.
func Identity(client *socket.Socket) (messaging.Identity, bool) {
	id, ok := client.Data().(*messaging.Identity)
	if !ok || id == nil {
		return messaging.Identity{}, false
	}
	return *id, true
}

// Connected records presence for a freshly connected socket.
func (s *Server) Connected(client *socket.Socket) {
	s.track(client, true)
}

// Disconnected releases the presence held by client.
func (s *Server) Disconnected(client *socket.Socket) {
	s.track(client, false)
}

// Touch keeps an active user online while their socket sends events.
func (s *Server) Touch(client *socket.Socket) {
	caller, ok := Identity(client)
	if !ok || s.presence == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.presence.Touch(ctx, caller.ID); err != nil {
		l := logger.WithUserID(caller.ID)
		l.Warn().Err(err).Msg("presence refresh failed")
	}
}

func (s *Server) track(client *socket.Socket, connected bool) {
	caller, ok := Identity(client)
	if !ok || s.presence == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	if connected {
		err = s.presence.Connect(ctx, caller.ID)
	} else {
		err = s.presence.Disconnect(ctx, caller.ID)
	}
	if err != nil {
		l := logger.WithUserID(caller.ID)
		l.Warn().Err(err).Bool("connected", connected).Msg("presence update failed")
	}
}

func (s *Server) Emit(id string, event string, message any) {
	s.io.To(socket.Room(id)).Emit(event, message)
}

// Notify delivers a messaging event to every recipient's room.
func (s *Server) Notify(_ context.Context, ev messaging.Event) error {
	for _, id := range ev.Recipients {
		s.Emit(id, string(ev.Type), ev)
	}
	return nil
}

func (s *Server) Close() {
	s.io.Close(nil)
}
