package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/scoreboard/brackets"
	"github.com/Dosada05/scoreboard/models"
	"github.com/Dosada05/scoreboard/repositories"
)

type ScheduleRoundRobinInput struct {
	Sport           models.Sport              `json:"sport"`
	Teams           []string                  `json:"teams"`
	Legs            int                       `json:"legs,omitempty"` // 1 или 2, по умолчанию 1
	Config          models.MatchConfiguration `json:"config"`
	Court           *string                   `json:"court,omitempty"`
	StartAt         *time.Time                `json:"start_at,omitempty"`
	IntervalMinutes int                       `json:"interval_minutes,omitempty"`
}

type ScheduleService interface {
	// ScheduleRoundRobin создает по матчу на каждую пару. Матчи идут на корте
	// друг за другом, каждый через IntervalMinutes после предыдущего.
	ScheduleRoundRobin(ctx context.Context, input ScheduleRoundRobinInput) ([]*models.Match, error)
}

type scheduleService struct {
	repo      repositories.MatchRepository
	generator brackets.PairingGenerator
	logger    *slog.Logger
}

func NewScheduleService(repo repositories.MatchRepository, logger *slog.Logger) ScheduleService {
	return &scheduleService{
		repo:      repo,
		generator: brackets.NewRoundRobinGenerator(),
		logger:    logger,
	}
}

func (s *scheduleService) ScheduleRoundRobin(ctx context.Context, input ScheduleRoundRobinInput) ([]*models.Match, error) {
	if input.IntervalMinutes < 0 {
		return nil, validationError(errors.New("interval_minutes must not be negative"))
	}

	pairings, err := s.generator.Generate(ctx, brackets.GenerateParams{Teams: input.Teams, Legs: input.Legs})
	if err != nil {
		return nil, mapGeneratorError(err)
	}

	interval := time.Duration(input.IntervalMinutes) * time.Minute
	matches := make([]*models.Match, 0, len(pairings))
	for i, p := range pairings {
		var scheduledAt *time.Time
		if input.StartAt != nil {
			at := input.StartAt.Add(time.Duration(i) * interval)
			scheduledAt = &at
		}
		match, err := newMatchFromInput(CreateMatchInput{
			Sport:       input.Sport,
			TeamAName:   p.TeamA,
			TeamBName:   p.TeamB,
			Court:       input.Court,
			ScheduledAt: scheduledAt,
			FirstServer: models.SideA,
			Config:      input.Config,
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	if err := s.repo.CreateBatch(ctx, matches); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.logger.Info("round-robin scheduled",
		slog.String("generator", s.generator.GetName()),
		slog.Int("teams", len(input.Teams)),
		slog.Int("matches", len(matches)),
	)
	return matches, nil
}

func mapGeneratorError(err error) error {
	switch {
	case errors.Is(err, brackets.ErrNotEnoughTeams):
		return validationError(ErrScheduleTooFewTeams)
	case errors.Is(err, brackets.ErrInvalidLegs):
		return validationError(ErrScheduleInvalidLegs)
	case errors.Is(err, brackets.ErrDuplicateTeam), errors.Is(err, brackets.ErrEmptyTeamName):
		return validationError(err)
	}
	return fmt.Errorf("failed to generate round-robin pairings: %w", err)
}
