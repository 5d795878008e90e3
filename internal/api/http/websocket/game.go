package websocket

import (
	"encoding/json"
	"time"

	"draw-guess-be/internal/protocol"
	"draw-guess-be/internal/service"
	"draw-guess-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// JoinGame 将一条 WebSocket 连接接入与 TCP 完全相同的消息分发器
// 每条 WebSocket 文本帧即一条消息，无需换行分隔
func JoinGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		clientIP := ctx.RemoteAddr()

		sess := service.NewSession()
		appState.Sessions.Add(sess)

		zap.L().Info(
			"新 WebSocket 连接",
			zap.String("session_id", sess.ID),
			zap.String("client_ip", clientIP),
		)

		// 写入协程
		go func() {
			ticker := time.NewTicker(HEARTBEAT_INTERVAL)
			defer ticker.Stop()

			for {
				select {
				case <-sess.Done():
					zap.L().Info(
						"WebSocket写入协程退出",
						zap.String("client_ip", clientIP),
					)
					return

				case <-ticker.C:
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						zap.L().Error(
							"发送心跳失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}

					conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

				case resp := <-sess.SendCh():
					if err := conn.WriteJSON(resp); err != nil {
						zap.L().Error(
							"发送消息失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}

					zap.L().Debug(
						"发送消息",
						zap.String("client_ip", clientIP),
						zap.String("type", resp.Type),
					)
				}
			}
		}()

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			var req protocol.Request

			if err := json.Unmarshal(msg, &req); err != nil || req.Type == "" {
				// 丢弃坏消息，连接继续服务
				zap.L().Debug(
					"丢弃无法解析的消息",
					zap.String("client_ip", clientIP),
				)
				continue
			}

			appState.Dispatcher.Dispatch(sess, req)
		}

		// 读循环退出，表示客户端断开连接
		zap.L().Info(
			"WebSocket连接断开",
			zap.String("client_ip", clientIP),
			zap.String("session_id", sess.ID),
		)

		appState.Dispatcher.HandleDisconnect(sess)
	}
}
