package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/scoreboard/repositories"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrTeamNameRequired     = errors.New("both team names are required")
	ErrTeamNamesEqual       = errors.New("team names must differ")
	ErrInvalidSport         = errors.New("sport must be tennis or padel")
	ErrGoldenPointPadelOnly = errors.New("golden point is only available for padel")
	ErrInvalidFirstServer   = errors.New("first server must be A or B")
	ErrInvalidAction        = errors.New("unknown scoring action")
	ErrInvalidTeam          = errors.New("team must be A or B")
	ErrScheduleTooFewTeams  = errors.New("round-robin schedule needs at least two teams")
	ErrScheduleInvalidLegs  = errors.New("round-robin legs must be 1 or 2")

	// Ошибки состояния матча
	ErrMatchNotFound  = errors.New("match not found")
	ErrMatchCanceled  = errors.New("match is canceled")
	ErrMatchCompleted = errors.New("match is already completed")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidationFailed, err)
}

// handleRepositoryError переводит ошибки репозитория в ошибки сервиса.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchInvalid):
		return validationError(err)
	}
	return err
}
