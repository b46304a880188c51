package repositories

import (
	"database/sql"
	"fmt"

	"github.com/Dosada05/scoreboard/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

// scoreColumns: плоские колонки счета таблицы matches.
type scoreColumns struct {
	setsFormat           int
	tiebreak             bool
	championshipTiebreak bool
	goldenPoint          bool
	aPoints              string
	aGames               int
	aSets                int
	bPoints              string
	bGames               int
	bSets                int
	serving              string
}

func (c *scoreColumns) dest() []any {
	return []any{
		&c.setsFormat, &c.tiebreak, &c.championshipTiebreak, &c.goldenPoint,
		&c.aPoints, &c.aGames, &c.aSets,
		&c.bPoints, &c.bGames, &c.bSets,
		&c.serving,
	}
}

func (c *scoreColumns) state() (models.MatchState, error) {
	aPoints, err := models.ParsePointScore(c.aPoints)
	if err != nil {
		return models.MatchState{}, fmt.Errorf("team a: %w", err)
	}
	bPoints, err := models.ParsePointScore(c.bPoints)
	if err != nil {
		return models.MatchState{}, fmt.Errorf("team b: %w", err)
	}
	serving := models.Side(c.serving)
	return models.MatchState{
		TeamA: models.TeamScoreState{Points: aPoints, Games: c.aGames, Sets: c.aSets, IsServing: serving == models.SideA},
		TeamB: models.TeamScoreState{Points: bPoints, Games: c.bGames, Sets: c.bSets, IsServing: serving == models.SideB},
		Config: models.MatchConfiguration{
			Sets:                        c.setsFormat,
			TiebreakEnabled:             c.tiebreak,
			ChampionshipTiebreakEnabled: c.championshipTiebreak,
			GoldenPointEnabled:          c.goldenPoint,
		},
	}, nil
}

// configArgs и scoreArgs держат порядок колонок для обоих диалектов.
func configArgs(cfg models.MatchConfiguration) []any {
	return []any{cfg.Sets, cfg.TiebreakEnabled, cfg.ChampionshipTiebreakEnabled, cfg.GoldenPointEnabled}
}

func scoreArgs(state models.MatchState) []any {
	return []any{
		state.TeamA.Points.String(), state.TeamA.Games, state.TeamA.Sets,
		state.TeamB.Points.String(), state.TeamB.Games, state.TeamB.Sets,
		string(state.Server()),
	}
}

func sidePtrValue(s *models.Side) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func nullSidePtr(ns sql.NullString) *models.Side {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := models.Side(ns.String)
	return &s
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
