package router

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/mailru/easygo/netpoll"
	"go.uber.org/zap"

	"github.com/detour-routing/detour/pkg/concurrent"
	"github.com/detour-routing/detour/pkg/http/router/controllers"
	http_server "github.com/detour-routing/detour/pkg/http/server"
)

// handleWebsocket runs the event-feed listener on the websocket port.
// Connections are registered with epoll via netpoll so an idle client
// costs a file descriptor, not a goroutine; pushes go through the worker
// pool. ref: https://sergey.kamardin.org/articles/million-websocket-and-go/
func (api *API) handleWebsocket(ctx context.Context, config http_server.Config,
	sessionService controllers.SessionService, errChan chan error,
) {
	var err error

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", config.WebsocketPort))
	if err != nil {
		errChan <- err
		return
	}
	api.log.Info(fmt.Sprintf("session event websocket run on port %d", config.WebsocketPort))

	acceptDesc := netpoll.Must(netpoll.HandleListener(
		ln, netpoll.EventRead|netpoll.EventOneShot,
	))

	api.poller, err = netpoll.New(nil)
	if err != nil {
		errChan <- err
		return
	}

	api.pool = concurrent.NewWorkerPool[controllers.BroadcastJob, error](15, 64)
	api.hub = controllers.NewHub(api.pool, sessionService)
	api.pool.Start(ctx, controllers.Deliver)

	go func() {
		for err := range api.pool.CollectResults() {
			if err != nil {
				api.log.Debug("event push failed", zap.Error(err))
			}
		}
	}()

	api.poller.Start(acceptDesc, func(e netpoll.Event) {
		/*
			the listener file descriptor sits in the epoll interest list;
			netpoll runs epoll_wait() in the background and calls back here
			when a connection is pending.
		*/
		defer api.poller.Resume(acceptDesc)

		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				delay := 5 * time.Millisecond
				api.log.Sugar().Infof("accept error: %v; retrying in %s", err, delay)
				time.Sleep(delay)
				return
			}
			api.log.Error("accept error", zap.Error(err))
			return
		}

		api.handle(conn)
	})

	<-ctx.Done()

	ln.Close()

	api.hub.RemoveAllUsers()
	api.poller.Stop(acceptDesc)

	api.pool.Close()
	api.pool.Wait()

	api.log.Info("websocket server stopped")
}

// handle upgrades one accepted connection and parks it on the poller. The
// first readable event carries the subscribe frame; hangup events drop the
// consumer from the hub.
func (api *API) handle(conn net.Conn) {
	br := bufio.NewReader(conn)

	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	hs, err := ws.Upgrade(rw)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("connection name", nameConn(conn)))
		conn.Close()
		return
	}

	api.log.Info("established websocket connection", zap.String("connection name", nameConn(conn)),
		zap.String("protocol", hs.Protocol))

	user := api.hub.Register(conn)

	desc := netpoll.Must(netpoll.HandleRead(conn))

	api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			// the peer closed its end of the channel
			api.log.Info("user disconnected from websocket server")

			api.poller.Stop(desc)
			api.hub.Remove(user)
			conn.Close()
			return
		}

		go func() {
			if err := user.SubscribeEvents(); err != nil {
				api.log.Error("subscribe error", zap.Error(err))
				api.poller.Stop(desc)
				api.hub.Remove(user)
			}
		}()
	})
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
