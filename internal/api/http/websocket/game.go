package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"sketchbluff-be/internal/metrics"
	"sketchbluff-be/internal/service/game"
	"sketchbluff-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const invalidFormatMsg = "invalid request format"

// PlayGame 处理一个客户端的 WebSocket 会话。
// 连接建立后先推送 connected 事件告知连接 ID，之后的请求全部交给房间服务路由
func PlayGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ws, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer ws.Close()

		wsCfg := appState.Cfg.Websocket
		clientIP := ctx.RemoteAddr()

		ws.SetReadLimit(wsCfg.MaxMessageBytes)
		ws.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		ws.SetPongHandler(heartbeatHandler(ws))

		conn := appState.RoomSvc.Connect()
		defer appState.RoomSvc.Disconnect(conn.ID)

		log := zap.L().With(
			zap.String("client_ip", clientIP),
			zap.String("conn_id", conn.ID),
		)

		conn.Send(game.WrapResponse(
			game.RESP_CONNECTED,
			game.ConnectedResponse{ID: conn.ID},
		))

		log.Info("客户端已连接")

		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			writePump(ws, conn, log)
		}()

		readPump(ws, appState, conn, rate.NewLimiter(rate.Limit(wsCfg.RateLimit), wsCfg.RateBurst), log)

		// 读循环退出表示客户端断开，关闭连接让写协程退出
		appState.RoomSvc.Disconnect(conn.ID)
		<-writeDone

		log.Info("WebSocket连接处理完成")
	}
}

func readPump(
	ws *websocket.Conn,
	appState *state.AppState,
	conn *game.Conn,
	limiter *rate.Limiter,
	log *zap.Logger,
) {
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure,
			) {
				log.Warn("读取消息失败", zap.Error(err))
			}

			return
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil || wrapper.Event == "" {
			log.Debug("解析消息失败", zap.Error(err))

			conn.Send(game.WrapErrResponse(invalidFormatMsg))
			continue
		}

		if !limiter.Allow() {
			metrics.ActionsDropped.WithLabelValues(eventLabel(wrapper.Event), "rate_limited").Inc()
			log.Debug("请求过于频繁，丢弃", zap.String("event", wrapper.Event))
			continue
		}

		if err := appState.RoomSvc.Dispatch(conn, wrapper); err != nil {
			metrics.ActionsDropped.WithLabelValues(eventLabel(wrapper.Event), err.Error()).Inc()

			log.Debug(
				"请求未被处理",
				zap.String("event", wrapper.Event),
				zap.Error(err),
			)

			if errors.Is(err, game.ErrMalformedRequest) {
				conn.Send(game.WrapErrResponse(invalidFormatMsg))
			}
		}
	}
}

// writePump 是唯一向 WebSocket 写入的协程
func writePump(ws *websocket.Conn, conn *game.Conn, log *zap.Logger) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Done():
			_ = ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(WRITE_TIMEOUT),
			)
			return

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))

			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("发送心跳失败", zap.Error(err))
				ws.Close()
				return
			}

		case resp := <-conn.RespCh():
			ws.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))

			if err := ws.WriteJSON(resp); err != nil {
				log.Warn("发送消息失败", zap.Error(err))
				// 关闭底层连接，读循环随之退出
				ws.Close()
				return
			}

			log.Debug("发送消息", zap.String("event", resp.Event))
		}
	}
}

// eventLabel 把客户端可控的事件名收敛到已知集合，避免指标标签无限增长
func eventLabel(event string) string {
	switch event {
	case game.REQ_JOIN_ROOM, game.REQ_JOIN_CHAT, game.REQ_LEAVE_ROOM,
		game.REQ_KICK_USER, game.REQ_GET_RANDOM_ROOM, game.REQ_START_GAME,
		game.REQ_SELECT_PROMPT, game.REQ_DRAWING_UPDATE, game.REQ_SUBMIT_LIE,
		game.REQ_VOTE, game.REQ_NEXT_ROUND, game.REQ_END_GAME,
		game.REQ_SEND_MESSAGE, game.REQ_SIGNAL:
		return event
	}

	return "unknown"
}
