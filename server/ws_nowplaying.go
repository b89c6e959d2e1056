package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"NowFM/core/bus"
	"NowFM/core/session"
	"NowFM/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	tickPeriod = time.Second
)

// wsClient 一个订阅者连接。writePump是唯一写socket的协程。
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NowPlayingWSHandler 订阅端点：连接后立即推送最近状态，随后转发总线事件，
// 并以1秒节奏下发播放进度心跳。客户端发来的消息一律忽略。
func (h *APIHandler) NowPlayingWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &wsClient{conn: conn, send: make(chan []byte, 64)}

	logger.Info("subscriber connected",
		logger.String("subscriber", sub.ID),
		logger.String("remote", conn.RemoteAddr().String()))

	go client.readPump(cancel)
	go client.forwardEvents(ctx, cancel, sub)
	go client.tickPosition(ctx, cancel, h.store)

	// 先推送最近状态，让新订阅者无需等待下一个轮询周期
	h.sendInitialState(ctx, client)

	client.writePump(ctx)

	logger.Info("subscriber disconnected", logger.String("subscriber", sub.ID))
}

// sendInitialState 优先取内存中的当前事件，进程刚重启时回退Redis镜像
func (h *APIHandler) sendInitialState(ctx context.Context, c *wsClient) {
	ev := h.store.CurrentEvent()
	if ev == nil && h.cache != nil {
		cached, err := h.cache.Get(ctx)
		if err != nil {
			logger.Warn("now playing cache get failed", logger.ErrorField(err))
		} else {
			ev = cached
		}
	}
	if ev == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("marshal cached event failed", logger.ErrorField(err))
		return
	}
	select {
	case c.send <- data:
	case <-ctx.Done():
	}
}

// writePump owns all writes to the socket: queued frames plus keepalive
// pings. Runs on the handler goroutine; returning closes the connection.
func (c *wsClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 忽略客户端消息，只负责保活与关闭检测
func (c *wsClient) readPump(cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// forwardEvents relays bus events in publish order, deduplicating on the
// serialized payload. A marshal failure terminates only this connection.
func (c *wsClient) forwardEvents(ctx context.Context, cancel context.CancelFunc, sub *bus.Subscriber) {
	var lastSent []byte

	for {
		select {
		case <-ctx.Done():
			return
		case np, ok := <-sub.C:
			if !ok {
				return
			}

			data, err := json.Marshal(np)
			if err != nil {
				logger.Error("marshal now playing event failed", logger.ErrorField(err))
				cancel()
				return
			}
			if bytes.Equal(data, lastSent) {
				continue
			}
			lastSent = data

			select {
			case c.send <- data:
			case <-ctx.Done():
				return
			}
		}
	}
}

// tickPosition 每秒推送一次进度心跳，位置是按墙钟推算的估计值
func (c *wsClient) tickPosition(ctx context.Context, cancel context.CancelFunc, store *session.Store) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := json.Marshal(store.Progress(time.Now()))
			if err != nil {
				logger.Error("marshal progress failed", logger.ErrorField(err))
				cancel()
				return
			}

			select {
			case c.send <- data:
			case <-ctx.Done():
				return
			}
		}
	}
}
