package handlers

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationSocketCleansUpOnClose(t *testing.T) {
	setupTest(t)

	user := createUser(t, "Listener", "listener@example.com")

	r := gin.New()
	r.GET("/api/ws/notifications", authAs(user), NotificationSocket)

	server := httptest.NewServer(r)
	defer server.Close()

	before := runtime.NumGoroutine()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/notifications"
	header := http.Header{"Origin": []string{"http://localhost:3000"}}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer resp.Body.Close()

	var welcome map[string]string
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "connected", welcome["type"])

	userClientsMu.RLock()
	assert.Len(t, userClients[user.ID], 1)
	userClientsMu.RUnlock()

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		userClientsMu.RLock()
		defer userClientsMu.RUnlock()
		return len(userClients[user.ID]) == 0
	}, time.Second, 10*time.Millisecond, "registry entry must be removed after close")

	// The ping goroutine must exit with the connection instead of blocking
	// on its ticker forever.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond, "connection goroutines must exit after close")
}
