package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ClientPulse/pkg/util/myjwt"
	"ClientPulse/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWsHandler_ConnectReceivesPush(t *testing.T) {
	gin.SetMode(gin.TestMode)
	signer := myjwt.NewSigner("secret", "clientpulse", 1)
	hub := ws.NewHub()
	r := gin.New()
	r.GET("/wss", NewWsHandler(hub, signer).Connect)
	srv := httptest.NewServer(r)
	defer srv.Close()

	token, err := signer.GenerateToken(42, "u@example.com", "sales")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wss?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Online(42) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, hub.Send(42, []byte(`{"type":"notification"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification"}`, string(msg))
}

func TestWsHandler_RejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/wss", NewWsHandler(ws.NewHub(), myjwt.NewSigner("secret", "x", 1)).Connect)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wss?token=bad"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}
