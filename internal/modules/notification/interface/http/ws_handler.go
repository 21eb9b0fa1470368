package handler

import (
	"net/http"
	"time"

	"ClientPulse/pkg/util/myjwt"
	"ClientPulse/pkg/ws"
	"ClientPulse/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	maxReadBytes = 4 << 10
)

// WsHandler 站内通知实时推送通道，只下行；客户端消息仅用于保活
type WsHandler struct {
	hub    *ws.Hub
	signer *myjwt.Signer
}

func NewWsHandler(hub *ws.Hub, signer *myjwt.Signer) *WsHandler {
	return &WsHandler{hub: hub, signer: signer}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connect 浏览器原生 WebSocket 无法带 Header，token 走 query
func (h *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims, err := h.signer.ParseToken(token)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Warn("ws upgrade failed", zap.Int64("user_id", claims.UserId), zap.Error(err))
		return
	}

	client := ws.NewClient(claims.UserId, conn)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	conn.SetReadLimit(maxReadBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go client.WritePump()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
