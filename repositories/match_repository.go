package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/scoreboard/models"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchStaleVersion = errors.New("match score version is not newer than stored version")
	ErrMatchInvalid      = errors.New("match row violates a constraint")
)

// MatchFilter ограничивает выборку List. Пустые поля не фильтруют.
type MatchFilter struct {
	Status *models.MatchStatus
	Sport  *models.Sport
	Limit  int
	Offset int
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	// CreateBatch вставляет все матчи или ни одного.
	CreateBatch(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]*models.Match, error)
	// UpdateScore пишет живой счет. Если version не больше сохраненной,
	// возвращает ErrMatchStaleVersion.
	UpdateScore(ctx context.Context, id int, update ScoreUpdate) error
	SetArchiveURL(ctx context.Context, id int, url string) error
	Delete(ctx context.Context, id int) error
}

type ScoreUpdate struct {
	State   models.MatchState
	Status  models.MatchStatus
	Winner  *models.Side
	Version int64
}

const defaultListLimit = 50
