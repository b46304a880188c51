package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Dosada05/scoreboard/realtime"
	"github.com/Dosada05/scoreboard/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// табло открывают оверлеи стримов и ТВ-плееры с любых доменов
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub          *realtime.Hub
	matchService services.MatchService
	logger       *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, ms services.MatchService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		matchService: ms,
		logger:       logger,
	}
}

// ServeWs подключает зрителя к комнате матча.
// Клиент подключается к /ws/matches/{matchID} и сразу получает текущее табло.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.matchService.GetMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту
		h.logger.Warn("websocket upgrade failed", slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}

	roomID := realtime.MatchRoom(matchID)
	client := realtime.NewClient(h.hub, conn, roomID)
	if !h.hub.Join(client) {
		// сервер останавливается
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	// снимок после регистрации, чтобы не пропустить события между ними
	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		h.logger.Warn("match vanished before snapshot", slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}
	snapshot, err := json.Marshal(realtime.WebSocketMessage{
		Type:    realtime.MessageMatchState,
		Payload: match,
		RoomID:  roomID,
	})
	if err != nil {
		h.logger.Error("failed to encode match snapshot", slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}
	client.Enqueue(snapshot)
}
