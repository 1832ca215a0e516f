package websocket

import (
	"encoding/json"
	"sync"

	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
)

const (
	EventReviewCreated = "review.created"

	sendBufferSize = 64
)

// Event 대시보드로 전달되는 실시간 이벤트
type Event struct {
	Type       string      `json:"type"`
	BusinessID uint        `json:"businessId"`
	Data       interface{} `json:"data"`
}

// Client 대시보드 WebSocket 연결 하나
type Client struct {
	Hub        *Hub
	Conn       *Conn
	BusinessID uint
	UserID     uint
	Send       chan []byte
}

func NewClient(hub *Hub, conn *Conn, businessID, userID uint) *Client {
	return &Client{
		Hub:        hub,
		Conn:       conn,
		BusinessID: businessID,
		UserID:     userID,
		Send:       make(chan []byte, sendBufferSize),
	}
}

// Hub 비즈니스별 리뷰 실시간 피드 관리자
type Hub struct {
	// 비즈니스별 구독 클라이언트 (BusinessID -> set)
	clients map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Event
	done       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *Event, 1024),
		done:       make(chan struct{}),
	}
}

// Run Hub 실행, Stop 호출 시 모든 연결을 닫고 종료
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			subs, ok := h.clients[client.BusinessID]
			if !ok {
				subs = make(map[*Client]bool)
				h.clients[client.BusinessID] = subs
			}
			subs[client] = true
			h.mu.Unlock()
			logger.Info("Live feed client registered", map[string]interface{}{
				"business_id": client.BusinessID,
				"user_id":     client.UserID,
				"subscribers": len(subs),
			})

		case client := <-h.unregister:
			h.remove(client)

		case event := <-h.broadcast:
			h.deliver(event)

		case <-h.done:
			h.mu.Lock()
			for _, subs := range h.clients {
				for client := range subs {
					close(client.Send)
				}
			}
			h.clients = make(map[uint]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.clients[client.BusinessID]
	if !ok || !subs[client] {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.clients, client.BusinessID)
	}
	close(client.Send)

	logger.Info("Live feed client unregistered", map[string]interface{}{
		"business_id": client.BusinessID,
		"user_id":     client.UserID,
	})
}

func (h *Hub) deliver(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal live feed event", err, map[string]interface{}{
			"type": event.Type,
		})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[event.BusinessID] {
		select {
		case client.Send <- data:
		default:
			// 느린 클라이언트는 연결 해제
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"business_id": event.BusinessID,
				"user_id":     client.UserID,
			})
		}
	}
}

// Publish 비즈니스 구독자에게 이벤트 전송, 큐가 가득 차면 버림
func (h *Hub) Publish(businessID uint, eventType string, data interface{}) {
	select {
	case h.broadcast <- &Event{Type: eventType, BusinessID: businessID, Data: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"business_id": businessID,
			"type":        eventType,
		})
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop Hub 종료
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Subscribers 비즈니스의 현재 구독자 수
func (h *Hub) Subscribers(businessID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[businessID])
}
