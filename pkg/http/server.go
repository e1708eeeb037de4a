package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	http_router "github.com/detour-routing/detour/pkg/http/router"
	"github.com/detour-routing/detour/pkg/http/router/controllers"
	http_server "github.com/detour-routing/detour/pkg/http/server"
)

type Server struct {
	Log *zap.Logger
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,

	useRateLimit bool,
	sessionService controllers.SessionService,

) (*Server, error) {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("WEBSOCKET_PORT", 6666)

	viper.SetDefault("API_TIMEOUT", "1000s")

	config := http_server.Config{
		Port:          viper.GetInt("API_PORT"),
		WebsocketPort: viper.GetInt("WEBSOCKET_PORT"),
		Timeout:       viper.GetDuration("API_TIMEOUT"),
	}

	server := http_router.NewAPI(log)

	g := errgroup.Group{}

	g.Go(func() error {
		return server.Run(
			ctx, config, log,
			useRateLimit, sessionService,
		)
	})

	return s, nil
}

// GracefulShutdown blocks until SIGINT or SIGTERM arrives.
func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}
