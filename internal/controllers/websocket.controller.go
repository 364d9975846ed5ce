package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pcdash/internal/middleware"
	"pcdash/internal/models"
	"pcdash/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// WebSocketController streams dashboard updates and alerts to browsers
type WebSocketController struct {
	Hub       *services.WebSocketHub
	Dashboard *services.Dashboard
	Log       *zap.Logger
	// Ctx bounds hub registration; usually the server's lifetime
	Ctx      context.Context
	upgrader websocket.Upgrader
}

func NewWebSocketController(ctx context.Context, hub *services.WebSocketHub, d *services.Dashboard, allowedOrigins []string, log *zap.Logger) *WebSocketController {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketController{
		Hub:       hub,
		Dashboard: d,
		Log:       log,
		Ctx:       ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(r.Header.Get("Origin"), allowedOrigins)
			},
		},
	}
}

// HandleWebSocket upgrades the request and registers the client with the hub.
// The current stats are sent right away so a new client does not wait a tick.
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	ws, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.Log.Warn("websocket upgrade failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		return
	}

	client := &services.ClientConnection{
		ID:    uuid.NewString(),
		Conn:  ws,
		Send:  make(chan services.WebSocketMessage, 256),
		Close: make(chan struct{}),
	}
	wc.Log.Info("websocket connected", zap.String("client", client.ID), zap.String("ip", c.ClientIP()))

	// Queue the current stats before the hub knows the client, so nothing
	// else can close Send yet.
	if raw, err := json.Marshal(wc.Dashboard.Stats()); err == nil {
		client.Send <- services.WebSocketMessage{Type: services.MessageStats, Timestamp: time.Now(), Data: raw}
	}
	wc.Hub.Register(wc.Ctx, client)

	go wc.readPump(client)
	go wc.writePump(client)
}

// readPump reads messages from the WebSocket client
func (wc *WebSocketController) readPump(client *services.ClientConnection) {
	defer func() {
		close(client.Close)
		wc.Hub.Unregister(wc.Ctx, client.ID)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg services.ClientMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				wc.Log.Warn("websocket read failed", zap.String("client", client.ID), zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			wc.reply(client, services.MessagePong, nil)

		case "lookback":
			wc.handleLookback(client, msg)

		case "subscribe":
			// already subscribed on connect

		case "unsubscribe":
			return

		default:
			wc.replyError(client, "unknown message type: "+msg.Type)
		}
	}
}

func (wc *WebSocketController) handleLookback(client *services.ClientConnection, msg services.ClientMessage) {
	metric, err := models.ParseMetric(msg.Metric)
	if err != nil {
		wc.replyError(client, err.Error())
		return
	}
	if err := wc.Dashboard.SetLookback(metric, msg.LookbackSeconds); err != nil {
		wc.replyError(client, err.Error())
		return
	}
	view, err := wc.Dashboard.View(metric, 0)
	if err != nil {
		wc.replyError(client, err.Error())
		return
	}
	wc.reply(client, services.MessageStats, services.StatsPayload{
		Status: wc.Dashboard.Status(),
		Views:  []models.WindowView{view},
	})
}

func (wc *WebSocketController) reply(client *services.ClientConnection, msgType string, data any) {
	msg := services.WebSocketMessage{Type: msgType, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			wc.Log.Error("marshal reply", zap.String("type", msgType), zap.Error(err))
			return
		}
		msg.Data = raw
	}
	wc.send(client, msg)
}

func (wc *WebSocketController) replyError(client *services.ClientConnection, text string) {
	wc.send(client, services.WebSocketMessage{Type: services.MessageError, Timestamp: time.Now(), Error: text})
}

// send goes through the hub so it never races the hub closing client.Send
func (wc *WebSocketController) send(client *services.ClientConnection, msg services.WebSocketMessage) {
	if !wc.Hub.SendMessage(client.ID, msg) {
		wc.Log.Debug("reply dropped", zap.String("client", client.ID), zap.String("type", msg.Type))
	}
}

// writePump writes messages to the WebSocket client
func (wc *WebSocketController) writePump(client *services.ClientConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
		wc.Log.Info("websocket disconnected", zap.String("client", client.ID))
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					wc.Log.Warn("websocket write failed", zap.String("client", client.ID), zap.Error(err))
				}
				return
			}

		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Close:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
