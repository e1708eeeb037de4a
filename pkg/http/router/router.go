package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mailru/easygo/netpoll"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/detour-routing/detour/pkg/concurrent"
	"github.com/detour-routing/detour/pkg/http/router/controllers"
	router_helper "github.com/detour-routing/detour/pkg/http/router/routerhelper"
	http_server "github.com/detour-routing/detour/pkg/http/server"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "net/http/pprof"
)

type API struct {
	log    *zap.Logger
	hub    *controllers.Hub
	poller netpoll.Poller
	pool   *concurrent.WorkerPool[controllers.BroadcastJob, error]
}

func NewAPI(log *zap.Logger) *API {
	return &API{log: log}
}

//	@title			Detour API
//	@version		1.0
//	@description	Interactive route planning server with user-drawn road closures.

// @host		localhost
// @BasePath	/api
func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	log *zap.Logger,

	useRateLimit bool,
	sessionService controllers.SessionService,
) error {
	log.Info("Run httprouter API")

	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore

	})

	router.GET("/doc/*any", swaggerHandler)

	router.Handler(http.MethodGet, "/debug/pprof/*item", http.DefaultServeMux)

	group := router_helper.NewRouteGroup(router, "/api")

	sessionRoutes := controllers.New(sessionService, log)

	sessionRoutes.Routes(group)

	errChan := make(chan error, 1)

	go func() {
		api.handleWebsocket(ctx, config, sessionService, errChan)
	}()

	var mwChain []alice.Constructor
	if useRateLimit {
		mwChain = append(mwChain, corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
			RealIP, Heartbeat("healthz"), Logger(log), Labels, Limit)
	} else {
		mwChain = append(mwChain, corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
			RealIP, Heartbeat("healthz"), Logger(log), Labels)
	}
	mainMwChain := alice.New(mwChain...).Then(router)

	srv := http_server.New(ctx, mainMwChain, config, false)
	log.Info(fmt.Sprintf("API run on port %d", config.Port))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		log.Error("Websocket error, shutting down server", zap.Error(err))
		_ = srv.Shutdown(ctx)
		return err
	case err := <-serverErr:
		log.Info("HTTP server stopped", zap.Error(err))
		return err

	case <-ctx.Done():
		log.Info("Context canceled, shutting down server")
		_ = srv.Shutdown(context.Background())
		return ctx.Err()
	}
}

func swaggerHandler(res http.ResponseWriter, req *http.Request, p httprouter.Params) {
	httpSwagger.WrapHandler(res, req)
}
