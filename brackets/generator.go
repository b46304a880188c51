package brackets

import (
	"context"
	"errors"
)

var (
	ErrNotEnoughTeams = errors.New("at least two teams are required")
	ErrInvalidLegs    = errors.New("legs must be 1 or 2")
	ErrDuplicateTeam  = errors.New("team names must be unique")
	ErrEmptyTeamName  = errors.New("team name must not be empty")
)

type GenerateParams struct {
	Teams []string
	Legs  int // 1: каждый с каждым один раз, 2: в два круга
}

// Pairing: одна встреча расписания. TeamA стоит первой на табло и подает первой.
type Pairing struct {
	UID          string
	Round        int
	OrderInRound int
	Leg          int
	TeamA        string
	TeamB        string
}

type PairingGenerator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*Pairing, error)

	GetName() string
}
