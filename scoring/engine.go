// Package scoring: правила очков, геймов и сетов для тенниса и падела.
//
// Каждая функция принимает models.MatchState по значению и возвращает новое
// состояние. Пакет не делает I/O и ничего не хранит между вызовами; порядок
// событий и сохранение результата на вызывающем.
package scoring

import (
	"errors"
	"fmt"

	"github.com/Dosada05/scoreboard/models"
)

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidConfiguration = errors.New("invalid match configuration")
)

const (
	minGamesForSet      = 6
	tiebreakTriggerGame = 6
)

// ValidateConfiguration проверяет формат матча до начала игры.
func ValidateConfiguration(cfg models.MatchConfiguration) error {
	if cfg.Sets != 3 && cfg.Sets != 5 {
		return fmt.Errorf("%w: sets must be 3 or 5, got %d", ErrInvalidConfiguration, cfg.Sets)
	}
	return nil
}

// WinThreshold: сколько сетов нужно для победы, ceil(sets/2).
func WinThreshold(cfg models.MatchConfiguration) int {
	return (cfg.Sets + 1) / 2
}

func IsMatchComplete(state models.MatchState) bool {
	_, ok := Winner(state)
	return ok
}

// Winner возвращает сторону, набравшую нужное число сетов, если такая есть.
func Winner(state models.MatchState) (models.Side, bool) {
	threshold := WinThreshold(state.Config)
	if threshold <= 0 {
		return "", false
	}
	switch {
	case state.TeamA.Sets >= threshold:
		return models.SideA, true
	case state.TeamB.Sets >= threshold:
		return models.SideB, true
	}
	return "", false
}

// AwardPoint начисляет очко team, с выигрышем гейма и сета, если он случился.
// После завершения матча возвращает state без изменений.
func AwardPoint(state models.MatchState, team models.Side) (models.MatchState, error) {
	if !team.Valid() {
		return state, fmt.Errorf("%w: unknown team %q", ErrInvalidArgument, team)
	}
	if IsMatchComplete(state) {
		return state, nil
	}

	next := state
	if !checkGameWin(next, team) {
		advancePointScore(&next, team)
		return next, nil
	}

	winGame(&next, team)
	if checkSetWin(next, team) {
		winSet(&next, team)
	}
	return next, nil
}

// RevertPoint опускает очко team на ступень вниз. Геймы, сеты и подачу не
// трогает, так что очко, выигравшее гейм, этим не отменить.
func RevertPoint(state models.MatchState, team models.Side) (models.MatchState, error) {
	if !team.Valid() {
		return state, fmt.Errorf("%w: unknown team %q", ErrInvalidArgument, team)
	}
	next := state
	t := next.Team(team)
	if t.Points > models.PointLove {
		t.Points--
	}
	return next, nil
}

// SwitchServer передает подачу. Если подавали обе команды или ни одна,
// после вызова подает ровно одна.
func SwitchServer(state models.MatchState) models.MatchState {
	next := state
	aServes := !next.TeamA.IsServing
	next.TeamA.IsServing = aServes
	next.TeamB.IsServing = !aServes
	return next
}

// ResetMatch обнуляет очки, геймы и сеты. Подача остается как была.
func ResetMatch(state models.MatchState) models.MatchState {
	next := state
	for _, t := range []*models.TeamScoreState{&next.TeamA, &next.TeamB} {
		t.Points = models.PointLove
		t.Games = 0
		t.Sets = 0
	}
	return next
}

// checkGameWin: закончит ли очко team текущий гейм.
func checkGameWin(state models.MatchState, team models.Side) bool {
	me, other := state.Team(team), state.Team(team.Opponent())
	switch me.Points {
	case models.PointAdvantage:
		return true
	case models.PointForty:
		switch other.Points {
		case models.PointAdvantage:
			return false
		case models.PointForty:
			return state.Config.GoldenPointEnabled
		default:
			return true
		}
	}
	return false
}

// advancePointScore двигает лестницу очков, когда гейм не заканчивается.
func advancePointScore(state *models.MatchState, team models.Side) {
	me, other := state.Team(team), state.Team(team.Opponent())
	switch {
	case me.Points < models.PointForty:
		me.Points++
	case me.Points == models.PointForty && other.Points == models.PointAdvantage:
		other.Points = models.PointForty
	case me.Points == models.PointForty && other.Points == models.PointForty:
		me.Points = models.PointAdvantage
	}
}

func winGame(state *models.MatchState, team models.Side) {
	state.Team(team).Games++
	state.TeamA.Points = models.PointLove
	state.TeamB.Points = models.PointLove
	state.TeamA.IsServing = !state.TeamA.IsServing
	state.TeamB.IsServing = !state.TeamB.IsServing
}

// checkSetWin: шесть геймов с отрывом в два или 7-5. Если в сете действует
// тай-брейк, гейм при 6-6 решает сет со счетом 7-6.
func checkSetWin(state models.MatchState, team models.Side) bool {
	me, other := state.Team(team).Games, state.Team(team.Opponent()).Games
	if me < minGamesForSet {
		return false
	}
	if me >= other+2 || (me == 7 && other == 5) {
		return true
	}
	return tiebreakApplies(state) && me == tiebreakTriggerGame+1 && other == tiebreakTriggerGame
}

// tiebreakApplies: любой сет при включенном тай-брейке, либо только решающий,
// если включен лишь чемпионский.
func tiebreakApplies(state models.MatchState) bool {
	if state.Config.TiebreakEnabled {
		return true
	}
	return state.Config.ChampionshipTiebreakEnabled && isDecidingSet(state)
}

func isDecidingSet(state models.MatchState) bool {
	decider := WinThreshold(state.Config) - 1
	return state.TeamA.Sets == decider && state.TeamB.Sets == decider
}

func winSet(state *models.MatchState, team models.Side) {
	state.Team(team).Sets++
	for _, t := range []*models.TeamScoreState{&state.TeamA, &state.TeamB} {
		t.Games = 0
		t.Points = models.PointLove
	}
}

// IsTiebreak: текущий гейм решает сет при 6-6.
func IsTiebreak(state models.MatchState) bool {
	return tiebreakApplies(state) &&
		state.TeamA.Games == tiebreakTriggerGame && state.TeamB.Games == tiebreakTriggerGame
}

// IsChampionshipTiebreak: текущий гейм решает весь матч в решающем сете.
// Считается как обычный гейм.
func IsChampionshipTiebreak(state models.MatchState) bool {
	return state.Config.ChampionshipTiebreakEnabled && isDecidingSet(state) && IsTiebreak(state)
}
