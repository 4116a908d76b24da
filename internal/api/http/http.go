package http

import (
	"fmt"

	"sketchbluff-be/internal/api/http/websocket"
	"sketchbluff-be/internal/state"

	"github.com/kataras/iris/v12"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	if dir := appState.Cfg.StaticDir; dir != "" {
		app.HandleDir(
			"/",
			iris.Dir(dir),
			iris.DirOptions{
				IndexName: "index.html",
				SPA:       true,
				Compress:  true,
			},
		)
	}

	app.Get("/healthz", Health(appState))
	app.Get("/metrics", iris.FromStd(promhttp.Handler()))

	api := app.Party("/api/v1")

	api.Get("/ws", websocket.PlayGame(appState))

	api.Post("/rooms", CreateRoom(appState))
	api.Get("/rooms/random", RandomRoom(appState))
	api.Get("/rooms/{id:string}/members", RoomMembers(appState))
	api.Get("/rooms/{id:string}/qr", RoomQRCode(appState))

	return app
}

func RunServer(appState *state.AppState) error {
	app := NewApp(appState)

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	return app.Listen(addr, iris.WithoutServerError(iris.ErrServerClosed))
}
