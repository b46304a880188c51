package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/scoreboard/models"
	"github.com/Dosada05/scoreboard/realtime"
	"github.com/Dosada05/scoreboard/repositories"
	"github.com/Dosada05/scoreboard/scoring"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrMatchesListFailed - общая ошибка для листинга матчей
var ErrMatchesListFailed = errors.New("failed to list matches")

type ScoreAction string

const (
	ActionAwardPoint   ScoreAction = "award_point"
	ActionRevertPoint  ScoreAction = "revert_point"
	ActionSwitchServer ScoreAction = "switch_server"
	ActionReset        ScoreAction = "reset"
	ActionCancel       ScoreAction = "cancel"
)

func (a ScoreAction) Valid() bool {
	switch a {
	case ActionAwardPoint, ActionRevertPoint, ActionSwitchServer, ActionReset, ActionCancel:
		return true
	}
	return false
}

func (a ScoreAction) needsTeam() bool {
	return a == ActionAwardPoint || a == ActionRevertPoint
}

// teamSearchScan: сколько строк просматривает нечеткий поиск по командам.
const teamSearchScan = 500

// Broadcaster доставляет сообщения зрителям комнаты.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message any)
}

type CreateMatchInput struct {
	Sport       models.Sport              `json:"sport"`
	TeamAName   string                    `json:"team_a_name"`
	TeamBName   string                    `json:"team_b_name"`
	Court       *string                   `json:"court,omitempty"`
	ScheduledAt *time.Time                `json:"scheduled_at,omitempty"`
	FirstServer models.Side               `json:"first_server,omitempty"` // по умолчанию A
	Config      models.MatchConfiguration `json:"config"`
}

type ListMatchesFilter struct {
	Status *models.MatchStatus
	Sport  *models.Sport
	Team   string // нечеткий поиск по названиям обеих команд
	Limit  int
	Offset int
}

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, filter ListMatchesFilter) ([]*models.Match, error)
	// ApplyAction применяет одно событие счета. События одного матча
	// применяются в порядке поступления.
	ApplyAction(ctx context.Context, id int, action ScoreAction, team models.Side) (*models.Match, error)
	// SyncMatch заново записывает живое табло матча и ждет окончания записи.
	SyncMatch(ctx context.Context, id int) (*models.Match, error)
	DeleteMatch(ctx context.Context, id int) error
	// HandleExternalChange обрабатывает изменение, сделанное в БД другим инстансом.
	HandleExternalChange(ctx context.Context, change repositories.MatchChange)
	Close(ctx context.Context) error
}

// board: живое табло матча, главнее записи в БД.
type board struct {
	mu              sync.Mutex
	match           *models.Match
	lastSyncErr     error
	syncedVersion   int64
	archivedVersion int64
	deleted         bool
}

// snapshotLocked отдает копию матча наружу. Вызывать под b.mu.
func (b *board) snapshotLocked() *models.Match {
	m := b.match.Clone()
	if b.lastSyncErr != nil {
		msg := b.lastSyncErr.Error()
		m.LastSyncError = &msg
	}
	markTiebreak(m)
	return m
}

// markTiebreak отмечает, что текущий гейм решает сет (или весь матч).
func markTiebreak(m *models.Match) {
	m.Tiebreak = scoring.IsTiebreak(m.State)
	m.ChampionshipTiebreak = scoring.IsChampionshipTiebreak(m.State)
}

type matchService struct {
	repo        repositories.MatchRepository
	broadcaster Broadcaster
	archiver    *Archiver
	writer      *ScoreWriter
	logger      *slog.Logger

	mu     sync.Mutex
	boards map[int]*board
}

// NewMatchService связывает живые табло с repo. archiver может быть nil.
func NewMatchService(
	repo repositories.MatchRepository,
	broadcaster Broadcaster,
	archiver *Archiver,
	writerCfg ScoreWriterConfig,
	logger *slog.Logger,
) MatchService {
	s := &matchService{
		repo:        repo,
		broadcaster: broadcaster,
		archiver:    archiver,
		logger:      logger,
		boards:      make(map[int]*board),
	}
	s.writer = NewScoreWriter(repo, writerCfg, logger, s.handleSyncResult)
	return s
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	match, err := newMatchFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, match); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.mu.Lock()
	s.boards[match.ID] = &board{match: match.Clone(), syncedVersion: match.Version}
	s.mu.Unlock()

	s.logger.Info("match created", slog.Int("match_id", match.ID), slog.String("sport", string(match.Sport)))
	return match, nil
}

// newMatchFromInput проверяет input и возвращает несохраненный матч в статусе scheduled.
func newMatchFromInput(input CreateMatchInput) (*models.Match, error) {
	input.TeamAName = strings.TrimSpace(input.TeamAName)
	input.TeamBName = strings.TrimSpace(input.TeamBName)
	if input.Config.Sets == 0 {
		input.Config.Sets = 3
	}
	if input.FirstServer == "" {
		input.FirstServer = models.SideA
	}

	switch {
	case input.TeamAName == "" || input.TeamBName == "":
		return nil, validationError(ErrTeamNameRequired)
	case strings.EqualFold(input.TeamAName, input.TeamBName):
		return nil, validationError(ErrTeamNamesEqual)
	case !input.Sport.Valid():
		return nil, validationError(ErrInvalidSport)
	case !input.FirstServer.Valid():
		return nil, validationError(ErrInvalidFirstServer)
	case input.Config.GoldenPointEnabled && input.Sport != models.SportPadel:
		return nil, validationError(ErrGoldenPointPadelOnly)
	}
	if err := scoring.ValidateConfiguration(input.Config); err != nil {
		return nil, validationError(err)
	}

	var court *string
	if input.Court != nil {
		if c := strings.TrimSpace(*input.Court); c != "" {
			court = &c
		}
	}
	return &models.Match{
		Sport:       input.Sport,
		TeamAName:   input.TeamAName,
		TeamBName:   input.TeamBName,
		Court:       court,
		Status:      models.StatusScheduled,
		State:       models.NewMatchState(input.Config, input.FirstServer),
		ScheduledAt: input.ScheduledAt,
	}, nil
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	b, err := s.loadBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleted {
		return nil, ErrMatchNotFound
	}
	return b.snapshotLocked(), nil
}

func (s *matchService) ListMatches(ctx context.Context, filter ListMatchesFilter) ([]*models.Match, error) {
	team := strings.TrimSpace(filter.Team)
	repoFilter := repositories.MatchFilter{
		Status: filter.Status,
		Sport:  filter.Sport,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if team != "" {
		// пагинация после поиска
		repoFilter.Limit, repoFilter.Offset = teamSearchScan, 0
	}

	stored, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatchesListFailed, err)
	}

	matches := make([]*models.Match, 0, len(stored))
	for _, m := range stored {
		if live := s.liveSnapshot(m.ID); live != nil {
			m = live
		} else {
			markTiebreak(m)
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if team != "" && !matchesTeam(m, team) {
			continue
		}
		matches = append(matches, m)
	}

	if team != "" {
		matches = pageMatches(matches, filter.Limit, filter.Offset)
	}
	return matches, nil
}

func matchesTeam(m *models.Match, query string) bool {
	return fuzzy.MatchNormalizedFold(query, m.TeamAName) || fuzzy.MatchNormalizedFold(query, m.TeamBName)
}

func pageMatches(matches []*models.Match, limit, offset int) []*models.Match {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matches) {
		return []*models.Match{}
	}
	matches = matches[offset:]
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches
}

// liveSnapshot: копия табло, если матч загружен в память.
func (s *matchService) liveSnapshot(id int) *models.Match {
	s.mu.Lock()
	b, ok := s.boards[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleted {
		return nil
	}
	return b.snapshotLocked()
}

func (s *matchService) loadBoard(ctx context.Context, id int) (*board, error) {
	s.mu.Lock()
	b, ok := s.boards[id]
	s.mu.Unlock()
	if ok {
		return b, nil
	}

	match, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.boards[id]; ok {
		return b, nil
	}
	b = &board{match: match, syncedVersion: match.Version}
	if match.ArchiveURL != nil {
		b.archivedVersion = match.Version
	}
	s.boards[id] = b
	return b, nil
}

func (s *matchService) dropBoard(id int) {
	s.mu.Lock()
	b, ok := s.boards[id]
	delete(s.boards, id)
	s.mu.Unlock()
	if ok {
		b.mu.Lock()
		b.deleted = true
		b.mu.Unlock()
	}
}

func (s *matchService) ApplyAction(ctx context.Context, id int, action ScoreAction, team models.Side) (*models.Match, error) {
	if !action.Valid() {
		return nil, validationError(ErrInvalidAction)
	}
	if action.needsTeam() && !team.Valid() {
		return nil, validationError(ErrInvalidTeam)
	}

	b, err := s.loadBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deleted {
		return nil, ErrMatchNotFound
	}
	m := b.match
	if m.Status == models.MatchStatusCanceled {
		return nil, ErrMatchCanceled
	}
	if action == ActionCancel && m.Status == models.MatchStatusCompleted {
		return nil, ErrMatchCompleted
	}

	next, err := applyScoreAction(m.State, action, team)
	if err != nil {
		return nil, validationError(err)
	}
	status, winner := nextStatus(m.Status, next, action, next != m.State)

	if next == m.State && status == m.Status {
		return b.snapshotLocked(), nil
	}

	m.State = next
	m.Status = status
	m.Winner = winner
	m.Version++
	m.UpdatedAt = time.Now().UTC()

	update := repositories.ScoreUpdate{State: m.State, Status: m.Status, Winner: m.Winner, Version: m.Version}
	if err := s.writer.Submit(id, update); err != nil {
		b.lastSyncErr = err
	}

	snapshot := b.snapshotLocked()
	s.broadcastState(snapshot)
	return snapshot, nil
}

func applyScoreAction(state models.MatchState, action ScoreAction, team models.Side) (models.MatchState, error) {
	switch action {
	case ActionAwardPoint:
		return scoring.AwardPoint(state, team)
	case ActionRevertPoint:
		return scoring.RevertPoint(state, team)
	case ActionSwitchServer:
		return scoring.SwitchServer(state), nil
	case ActionReset:
		return scoring.ResetMatch(state), nil
	case ActionCancel:
		return state, nil
	}
	return state, ErrInvalidAction
}

// nextStatus вычисляет статус после action. Смена подачи сама по себе матч не начинает.
func nextStatus(current models.MatchStatus, state models.MatchState, action ScoreAction, changed bool) (models.MatchStatus, *models.Side) {
	switch action {
	case ActionReset:
		return models.StatusScheduled, nil
	case ActionCancel:
		return models.MatchStatusCanceled, nil
	}
	if winner, ok := scoring.Winner(state); ok {
		return models.MatchStatusCompleted, &winner
	}
	if current == models.MatchStatusCompleted {
		// завершение отменяет только reset
		return models.StatusInProgress, nil
	}
	if current == models.StatusScheduled && changed && action.needsTeam() {
		return models.StatusInProgress, nil
	}
	return current, nil
}

func (s *matchService) broadcastState(m *models.Match) {
	room := realtime.MatchRoom(m.ID)
	s.broadcaster.BroadcastToRoom(room, realtime.WebSocketMessage{
		Type:    realtime.MessageMatchState,
		Payload: m,
		RoomID:  room,
	})
}

func (s *matchService) broadcastDeleted(id int) {
	room := realtime.MatchRoom(id)
	s.broadcaster.BroadcastToRoom(room, realtime.WebSocketMessage{
		Type:    realtime.MessageMatchDeleted,
		Payload: map[string]int{"id": id},
		RoomID:  room,
	})
}

// handleSyncResult вызывается писателем после каждой серии попыток записи.
func (s *matchService) handleSyncResult(res SyncResult) {
	s.mu.Lock()
	b, ok := s.boards[res.MatchID]
	s.mu.Unlock()
	if !ok {
		return
	}

	b.mu.Lock()
	if b.deleted {
		b.mu.Unlock()
		return
	}
	hadErr := b.lastSyncErr != nil
	err := res.Err
	if errors.Is(err, repositories.ErrMatchStaleVersion) {
		// в БД уже эта версия или новее
		s.logger.Warn("stale score write", slog.Int("match_id", res.MatchID), slog.Int64("version", res.Version))
		err = nil
	}

	if err != nil {
		b.lastSyncErr = err
		s.logger.Error("score sync failed", slog.Int("match_id", res.MatchID), slog.Int64("version", res.Version), slog.Any("error", err))
	} else {
		if res.Version > b.syncedVersion {
			b.syncedVersion = res.Version
		}
		if b.syncedVersion >= b.match.Version {
			b.lastSyncErr = nil
		}
	}

	var toArchive *models.Match
	if err == nil && s.archiver != nil &&
		b.match.Status == models.MatchStatusCompleted &&
		b.syncedVersion == b.match.Version &&
		b.archivedVersion < b.match.Version {
		b.archivedVersion = b.match.Version
		toArchive = b.match.Clone()
	}
	if hadErr != (b.lastSyncErr != nil) {
		s.broadcastState(b.snapshotLocked())
	}
	b.mu.Unlock()

	if toArchive != nil {
		s.archive(toArchive)
	}
}

func (s *matchService) archive(match *models.Match) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url, err := s.archiver.Archive(ctx, match)
	if err != nil {
		s.logger.Error("failed to archive final scoreboard", slog.Int("match_id", match.ID), slog.Any("error", err))
		return
	}

	s.mu.Lock()
	b, ok := s.boards[match.ID]
	s.mu.Unlock()
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleted {
		return
	}
	b.match.ArchiveURL = &url
	s.broadcastState(b.snapshotLocked())
}

func (s *matchService) SyncMatch(ctx context.Context, id int) (*models.Match, error) {
	b, err := s.loadBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.deleted {
		b.mu.Unlock()
		return nil, ErrMatchNotFound
	}
	if b.syncedVersion < b.match.Version || b.lastSyncErr != nil {
		m := b.match
		update := repositories.ScoreUpdate{State: m.State, Status: m.Status, Winner: m.Winner, Version: m.Version}
		if err := s.writer.Submit(id, update); err != nil {
			b.lastSyncErr = err
			snapshot := b.snapshotLocked()
			b.mu.Unlock()
			return snapshot, nil
		}
	}
	b.mu.Unlock()

	if err := s.writer.FlushMatch(ctx, id); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleted {
		return nil, ErrMatchNotFound
	}
	return b.snapshotLocked(), nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	s.dropBoard(id)
	s.broadcastDeleted(id)
	s.logger.Info("match deleted", slog.Int("match_id", id))
	return nil
}

func (s *matchService) HandleExternalChange(ctx context.Context, change repositories.MatchChange) {
	switch change.Op {
	case repositories.MatchChangeResync:
		s.resyncBoards(ctx)
	case repositories.MatchChangeDelete:
		s.mu.Lock()
		_, ok := s.boards[change.ID]
		s.mu.Unlock()
		if ok {
			s.dropBoard(change.ID)
			s.broadcastDeleted(change.ID)
		}
	default:
		s.mu.Lock()
		b, ok := s.boards[change.ID]
		s.mu.Unlock()
		if ok {
			s.refreshBoard(ctx, change.ID, b, change.Version)
		}
	}
}

// anyVersion: перечитать матч независимо от объявленной версии.
const anyVersion int64 = -1

// refreshBoard заменяет табло строкой из БД, если там версия новее.
func (s *matchService) refreshBoard(ctx context.Context, id int, b *board, announced int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleted || (announced != anyVersion && announced <= b.match.Version) {
		return
	}

	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			b.deleted = true
			s.mu.Lock()
			delete(s.boards, id)
			s.mu.Unlock()
			s.broadcastDeleted(id)
			return
		}
		s.logger.Error("failed to reload match after external change", slog.Int("match_id", id), slog.Any("error", err))
		return
	}
	if stored.Version <= b.match.Version {
		return
	}

	b.match = stored
	b.syncedVersion = stored.Version
	b.lastSyncErr = nil
	s.logger.Info("match updated externally", slog.Int("match_id", id), slog.Int64("version", stored.Version))
	s.broadcastState(b.snapshotLocked())
}

func (s *matchService) resyncBoards(ctx context.Context) {
	s.mu.Lock()
	loaded := make(map[int]*board, len(s.boards))
	for id, b := range s.boards {
		loaded[id] = b
	}
	s.mu.Unlock()

	for id, b := range loaded {
		if ctx.Err() != nil {
			return
		}
		s.refreshBoard(ctx, id, b, anyVersion)
	}
}

func (s *matchService) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}
