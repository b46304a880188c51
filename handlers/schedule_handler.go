package handlers

import (
	"net/http"

	"github.com/Dosada05/scoreboard/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(ss services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: ss}
}

// ScheduleRoundRobin godoc
// @Summary Расписание "каждый с каждым"
// @Tags schedules
// @Description Создает по матчу на каждую пару команд (один или два круга).
// @Accept json
// @Produce json
// @Param body body services.ScheduleRoundRobinInput true "Команды и параметры расписания"
// @Success 201 {object} map[string]interface{} "Созданные матчи"
// @Failure 400 {object} map[string]string "Некорректный JSON"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /schedules/round-robin [post]
func (h *ScheduleHandler) ScheduleRoundRobin(w http.ResponseWriter, r *http.Request) {
	var input services.ScheduleRoundRobinInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.scheduleService.ScheduleRoundRobin(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
