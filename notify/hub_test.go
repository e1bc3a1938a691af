// notify/hub_test.go
package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-platform/models"
)

func TestHubPushDeliversToOpenConnection(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(7, conn)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.ConnCount(7) == 1 },
		time.Second, 10*time.Millisecond)

	hub.Push(7, &models.Notification{Kind: models.NotificationReminder, Title: "Upcoming session"})

	client.SetReadDeadline(time.Now().Add(time.Second))
	var got models.Notification
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "Upcoming session", got.Title)
}

func TestHubPushSkipsOtherUsers(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(1, conn)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.ConnCount(1) == 1 },
		time.Second, 10*time.Millisecond)

	// Addressed to user 2; user 1's connection must stay silent.
	hub.Push(2, &models.Notification{Title: "not yours"})

	client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var got models.Notification
	assert.Error(t, client.ReadJSON(&got))
}

func TestHubUnregisterDropsConnection(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}

	hub.Register(3, conn)
	assert.Equal(t, 1, hub.ConnCount(3))

	hub.Unregister(3, conn)
	assert.Equal(t, 0, hub.ConnCount(3))
}
