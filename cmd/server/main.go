package main

import (
	"context"
	"flag"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/http"
	"github.com/detour-routing/detour/pkg/http/usecases"
	"github.com/detour-routing/detour/pkg/logger"
	"github.com/detour-routing/detour/pkg/routing/ors"
	"github.com/detour-routing/detour/pkg/session"
	"github.com/detour-routing/detour/pkg/util"
)

var (
	useRateLimit = flag.Bool("rate_limit", false, "enable per-client rate limiting on the REST API")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	if err := util.ReadConfig(); err != nil {
		panic(err)
	}

	viper.SetDefault("ROUTING_BASE_URL", "https://api.openrouteservice.org")
	viper.SetDefault("ROUTING_PROFILE", "driving-car")
	viper.SetDefault("ROUTING_TIMEOUT", "10s")
	viper.SetDefault("CLOSURE_BUFFER_MARGIN", geo.DefaultBufferMargin)
	viper.SetDefault("ANIMATION_TICK", session.DefaultAnimationTick)
	viper.SetDefault("FRAME_PADDING_KM", session.DefaultFramePaddingKm)

	routingClient, err := ors.NewClient(logger,
		viper.GetString("ROUTING_BASE_URL"),
		viper.GetString("ROUTING_API_KEY"),
		viper.GetString("ROUTING_PROFILE"),
		viper.GetDuration("ROUTING_TIMEOUT"),
	)
	if err != nil {
		panic(err)
	}

	sessionService := usecases.NewSessionService(logger, routingClient, session.Config{
		BufferMargin:   viper.GetFloat64("CLOSURE_BUFFER_MARGIN"),
		AnimationTick:  viper.GetDuration("ANIMATION_TICK"),
		FramePaddingKm: viper.GetFloat64("FRAME_PADDING_KM"),
	})

	api := http.NewServer(logger)

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}
	api.Use(ctx, logger, *useRateLimit, sessionService)

	signal := http.GracefulShutdown()

	logger.Info("Detour Server Stopped", zap.String("signal", signal.String()))
	cleanup()
	sessionService.Shutdown()

	// let in-flight teardown drain before the process exits
	time.Sleep(100 * time.Millisecond)
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
