package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"

	sendBufferSize = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxReadSize    = 4096
)

// ChangeEvent 推送給訂閱者的資源異動通知
type ChangeEvent struct {
	Type      string    `json:"type"`
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeNotifier 接收資源異動，實作不得阻塞呼叫端
type ChangeNotifier interface {
	Publish(event ChangeEvent)
}

// Subscriber 代表一個 WebSocket 訂閱連線
type Subscriber struct {
	Conn     *websocket.Conn
	Username string
	SendChan chan []byte // 消息發送通道，用於異步傳送消息
}

// ChangeHub 管理所有訂閱 ApiResource 異動的 WebSocket 連線
type ChangeHub struct {
	subscribers map[*Subscriber]bool
	mu          sync.RWMutex
	logger      *zap.Logger
}

func NewChangeHub(logger *zap.Logger) *ChangeHub {
	return &ChangeHub{
		subscribers: make(map[*Subscriber]bool),
		logger:      logger,
	}
}

// Serve 處理一個已升級的連線，直到連線關閉才返回
func (h *ChangeHub) Serve(conn *websocket.Conn, username string) {
	sub := &Subscriber{
		Conn:     conn,
		Username: username,
		SendChan: make(chan []byte, sendBufferSize),
	}
	h.add(sub)

	done := make(chan struct{})
	go func() {
		h.writePump(sub)
		close(done)
	}()
	h.readPump(sub)

	// readPump 結束代表連線已斷，移除後 writePump 會跟著結束
	h.remove(sub)
	<-done
	conn.Close()
}

// Publish 廣播異動給所有訂閱者；佇列已滿的訂閱者會被斷線
func (h *ChangeHub) Publish(event ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode change event", zap.Error(err))
		return
	}

	// 持有寫鎖，避免送出時通道被其他 goroutine 關閉
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.SendChan <- payload:
		default:
			h.logger.Warn("dropping slow subscriber", zap.String("username", sub.Username))
			delete(h.subscribers, sub)
			close(sub.SendChan)
		}
	}
}

// SubscriberCount 目前在線的訂閱者數量
func (h *ChangeHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

// readPump 只負責處理 pong 與偵測連線關閉，客戶端送來的內容會被忽略
func (h *ChangeHub) readPump(sub *Subscriber) {
	sub.Conn.SetReadLimit(maxReadSize)
	sub.Conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.Conn.SetPongHandler(func(string) error {
		sub.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Info("websocket unexpected close", zap.String("username", sub.Username), zap.Error(err))
			}
			return
		}
	}
}

// writePump 依序寫出通知並定期送出心跳
func (h *ChangeHub) writePump(sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-sub.SendChan:
			sub.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				// 被 Publish 踢除時 readPump 仍在阻塞，關閉連線讓它返回
				sub.Conn.Close()
				return
			}
			if err := sub.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				sub.Conn.Close()
				return
			}

		case <-ticker.C:
			sub.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sub.Conn.Close()
				return
			}
		}
	}
}

func (h *ChangeHub) add(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribers[sub] = true
}

// remove 移除訂閱者並關閉其發送通道，重複呼叫無副作用
func (h *ChangeHub) remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.SendChan)
}
