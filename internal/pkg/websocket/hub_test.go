package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesSessionSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := int64(1)
		if r.URL.Query().Get("session") == "2" {
			sessionID = 2
		}
		require.NoError(t, hub.Serve(w, r, sessionID, 99))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn1, _, err := gorillaws.DefaultDialer.Dial(wsURL+"?session=1", nil)
	require.NoError(t, err)
	defer conn1.Close()
	conn2, _, err := gorillaws.DefaultDialer.Dial(wsURL+"?session=2", nil)
	require.NoError(t, err)
	defer conn2.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount(1) == 1 && hub.ClientCount(2) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(&Message{Type: MessageTypeCheckIn, SessionID: 1, Payload: map[string]int64{"studentId": 5}})

	require.NoError(t, conn1.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn1.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type      string           `json:"type"`
		SessionID int64            `json:"sessionId"`
		Payload   map[string]int64 `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeCheckIn, msg.Type)
	assert.Equal(t, int64(1), msg.SessionID)
	assert.Equal(t, int64(5), msg.Payload["studentId"])

	// session 2 must not receive session 1 traffic
	require.NoError(t, conn2.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = conn2.ReadMessage()
	assert.Error(t, err)
}

func TestHub_ClientLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, 7, 1)
	}))
	defer srv.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}
