package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHubServer(t *testing.T, hub *ChangeHub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, "tester")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestChangeHubBroadcastsToSubscribers(t *testing.T) {
	hub := NewChangeHub(zap.NewNop())
	srv := newHubServer(t, hub)

	first := dial(t, srv)
	defer first.Close()
	second := dial(t, srv)
	defer second.Close()

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	event := ChangeEvent{Type: ChangeCreated, ID: uuid.New(), Name: "api1", Timestamp: time.Now().UTC().Truncate(time.Second)}
	hub.Publish(event)

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var got ChangeEvent
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, event.Type, got.Type)
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, event.Name, got.Name)
		assert.True(t, event.Timestamp.Equal(got.Timestamp))
	}
}

func TestChangeHubRemovesClosedSubscribers(t *testing.T) {
	hub := NewChangeHub(zap.NewNop())
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// 沒有訂閱者時發布不應阻塞
	hub.Publish(ChangeEvent{Type: ChangeDeleted, ID: uuid.New()})
}

func TestChangeHubDropsSlowSubscriber(t *testing.T) {
	hub := NewChangeHub(zap.NewNop())
	sub := &Subscriber{Username: "slow", SendChan: make(chan []byte, 1)}
	hub.add(sub)

	hub.Publish(ChangeEvent{Type: ChangeCreated})
	assert.Equal(t, 1, hub.SubscriberCount())

	hub.Publish(ChangeEvent{Type: ChangeUpdated})
	assert.Equal(t, 0, hub.SubscriberCount())

	// 通道已關閉，但先前排入的訊息仍可讀出
	_, ok := <-sub.SendChan
	assert.True(t, ok)
	_, ok = <-sub.SendChan
	assert.False(t, ok)
}
