// Package realtime рассылает обновления матчей зрителям по websocket, одна комната на матч.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
)

const (
	MessageMatchState   = "MATCH_STATE"
	MessageMatchDeleted = "MATCH_DELETED"
)

type WebSocketMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
	RoomID  string `json:"room_id,omitempty"`
}

// MatchRoom возвращает имя комнаты зрителей матча.
func MatchRoom(matchID int) string {
	return "match_" + strconv.Itoa(matchID)
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // закрывается, когда Run вернул управление
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run обслуживает подключения, пока не отменен ctx, затем закрывает всех клиентов.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			size := len(h.rooms[client.Room])
			h.mu.Unlock()
			h.logger.Info("client registered", slog.String("room", client.Room), slog.String("client_id", client.ID), slog.Int("clients", size))

		case client := <-h.unregister:
			h.mu.Lock()
			if roomClients, ok := h.rooms[client.Room]; ok && roomClients[client] {
				client.close()
				delete(roomClients, client)
				if len(roomClients) == 0 {
					delete(h.rooms, client.Room)
				}
			}
			h.mu.Unlock()
			h.logger.Info("client unregistered", slog.String("room", client.Room), slog.String("client_id", client.ID))
		}
	}
}

// Join добавляет клиента в его комнату. Возвращает false, если хаб уже остановлен.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave убирает клиента из комнаты. После остановки хаба ничего не делает:
// Run к этому моменту уже закрыл всех клиентов.
func (h *Hub) Leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, roomClients := range h.rooms {
		for client := range roomClients {
			client.close()
		}
		delete(h.rooms, room)
	}
}

// BroadcastToRoom отправляет сообщение всем клиентам в указанной комнате.
// Медленный клиент с полным буфером сообщение пропускает.
func (h *Hub) BroadcastToRoom(roomID string, message any) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal room message", slog.String("room", roomID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		if !client.Enqueue(messageBytes) {
			h.logger.Warn("client send buffer full or closed, skipping", slog.String("room", roomID), slog.String("client_id", client.ID))
		}
	}
}

// RoomSize: сколько клиентов сейчас в комнате.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
