package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/scoreboard/middleware"
	"github.com/Dosada05/scoreboard/models"
	"github.com/Dosada05/scoreboard/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: ms,
	}
}

// ScoreActionInput: тело запроса для POST /matches/{matchID}/actions.
type ScoreActionInput struct {
	Action services.ScoreAction `json:"action"`
	Team   models.Side          `json:"team,omitempty"`
}

// CreateMatch godoc
// @Summary Создать матч
// @Tags matches
// @Description Создает матч в статусе scheduled. Доступно судьям и администраторам.
// @Accept json
// @Produce json
// @Param body body services.CreateMatchInput true "Команды, вид спорта и формат матча"
// @Success 201 {object} map[string]interface{} "Матч создан"
// @Failure 400 {object} map[string]string "Некорректный JSON"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches godoc
// @Summary Список матчей
// @Tags matches
// @Produce json
// @Param status query string false "scheduled, in_progress, completed, canceled"
// @Param sport query string false "tennis или padel"
// @Param team query string false "Нечеткий поиск по названию команды"
// @Param limit query int false "Размер страницы (по умолчанию 50)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{} "Матчи"
// @Failure 400 {object} map[string]string "Некорректные параметры"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Router /matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := services.ListMatchesFilter{Team: query.Get("team")}

	if raw := query.Get("status"); raw != "" {
		status := models.MatchStatus(raw)
		if !status.Valid() {
			badRequestResponse(w, r, errors.New("unknown match status"))
			return
		}
		filter.Status = &status
	}
	if raw := query.Get("sport"); raw != "" {
		sport := models.Sport(raw)
		if !sport.Valid() {
			badRequestResponse(w, r, services.ErrInvalidSport)
			return
		}
		filter.Sport = &sport
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatch godoc
// @Summary Получить матч
// @Tags matches
// @Description Текущее табло матча, включая last_sync_error, если последняя запись в БД не удалась.
// @Produce json
// @Param matchID path int true "ID матча"
// @Success 200 {object} map[string]interface{} "Матч"
// @Failure 400 {object} map[string]string "Некорректный ID"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApplyAction godoc
// @Summary Событие счета
// @Tags matches
// @Description Применяет award_point, revert_point, switch_server, reset или cancel. Для award_point и revert_point нужна команда A или B. Отмененный матч больше не меняется.
// @Accept json
// @Produce json
// @Param matchID path int true "ID матча"
// @Param body body ScoreActionInput true "Действие"
// @Success 200 {object} map[string]interface{} "Новое состояние матча"
// @Failure 400 {object} map[string]string "Некорректное действие"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Failure 409 {object} map[string]string "Матч отменен или уже завершен"
// @Security BearerAuth
// @Router /matches/{matchID}/actions [post]
func (h *MatchHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input ScoreActionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ApplyAction(r.Context(), matchID, input.Action, input.Team)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if userID, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		slog.Debug("score action applied",
			slog.Int("match_id", matchID),
			slog.String("action", string(input.Action)),
			slog.Int("user_id", userID),
			slog.Int64("version", match.Version),
		)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SyncMatch godoc
// @Summary Повторить запись матча в БД
// @Tags matches
// @Description Записывает текущее табло в БД и ждет результата. Ошибка записи возвращается в last_sync_error.
// @Produce json
// @Param matchID path int true "ID матча"
// @Success 200 {object} map[string]interface{} "Матч после синхронизации"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchID}/sync [post]
func (h *MatchHandler) SyncMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SyncMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteMatch godoc
// @Summary Удалить матч
// @Tags matches
// @Produce json
// @Param matchID path int true "ID матча"
// @Success 200 {object} map[string]string "Матч удален"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchID} [delete]
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "match deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
