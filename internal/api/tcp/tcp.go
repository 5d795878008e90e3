package tcp

import (
	"fmt"
	"net"

	"draw-guess-be/internal/protocol"
	"draw-guess-be/internal/service"
	"draw-guess-be/internal/state"

	"go.uber.org/zap"
)

// RunServer 监听 TCP 端口并为每条连接启动读写协程
// 帧格式为换行分隔的 JSON，格式错误的帧直接丢弃，连接保持
func RunServer(appState *state.AppState) {
	addr := fmt.Sprintf("%s:%d", appState.Cfg.Host, appState.Cfg.TCPPort)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		panic(fmt.Errorf("监听 TCP 端口失败: %w", err))
	}

	zap.L().Info("TCP 服务器已启动", zap.String("addr", addr))

	for {
		conn, err := listener.Accept()
		if err != nil {
			zap.L().Warn("接受连接失败", zap.Error(err))
			continue
		}

		go handleConn(appState, conn)
	}
}

func handleConn(appState *state.AppState, conn net.Conn) {
	sess := service.NewSession()
	appState.Sessions.Add(sess)

	zap.L().Info(
		"新 TCP 连接",
		zap.String("session_id", sess.ID),
		zap.String("remote", conn.RemoteAddr().String()),
	)

	go writePump(sess, conn)

	reader := protocol.NewFrameReader(conn)
	for {
		frame, err := reader.Next()
		if err != nil {
			zap.L().Info(
				"TCP 连接断开",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			break
		}

		req, err := protocol.Decode(frame)
		if err != nil {
			// 丢弃坏帧，连接继续服务
			zap.L().Debug(
				"丢弃无法解析的帧",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			continue
		}

		appState.Dispatcher.Dispatch(sess, req)
	}

	appState.Dispatcher.HandleDisconnect(sess)
	conn.Close()
}

// writePump 独占连接的写端，串行消费会话的发送通道
func writePump(sess *service.Session, conn net.Conn) {
	for {
		select {
		case <-sess.Done():
			return
		case resp := <-sess.SendCh():
			frame, err := protocol.Encode(resp)
			if err != nil {
				zap.L().Warn(
					"编码消息失败",
					zap.String("session_id", sess.ID),
					zap.String("type", resp.Type),
					zap.Error(err),
				)
				continue
			}

			if _, err := conn.Write(frame); err != nil {
				zap.L().Info(
					"写入连接失败",
					zap.String("session_id", sess.ID),
					zap.Error(err),
				)
				sess.Close()
				return
			}
		}
	}
}
