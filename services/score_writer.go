package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/scoreboard/repositories"
	"golang.org/x/time/rate"
)

var ErrScoreWriterClosed = errors.New("score writer is closed")

type ScoreWriterConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration // удваивается после каждой неудачной попытки
	MinInterval time.Duration // минимальный промежуток между записями одного матча
}

func DefaultScoreWriterConfig() ScoreWriterConfig {
	return ScoreWriterConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MinInterval: 300 * time.Millisecond,
	}
}

// SyncResult: итог одной серии попыток записи.
type SyncResult struct {
	MatchID int
	Version int64
	Err     error
}

type writeQueue struct {
	pending  *repositories.ScoreUpdate
	inFlight bool
	limiter  *rate.Limiter
}

// ScoreWriter пишет живой счет в репозиторий. На матч не больше одной записи
// в полете; снимки, пришедшие за это время, схлопываются до самого нового.
type ScoreWriter struct {
	repo     repositories.MatchRepository
	cfg      ScoreWriterConfig
	logger   *slog.Logger
	onResult func(SyncResult)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	idle   *sync.Cond
	active int
	closed bool
	queues map[int]*writeQueue
}

func NewScoreWriter(repo repositories.MatchRepository, cfg ScoreWriterConfig, logger *slog.Logger, onResult func(SyncResult)) *ScoreWriter {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &ScoreWriter{
		repo:     repo,
		cfg:      cfg,
		logger:   logger,
		onResult: onResult,
		ctx:      ctx,
		cancel:   cancel,
		queues:   make(map[int]*writeQueue),
	}
	w.idle = sync.NewCond(&w.mu)
	return w
}

// Submit ставит update в очередь matchID. На I/O не блокируется.
func (w *ScoreWriter) Submit(matchID int, update repositories.ScoreUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrScoreWriterClosed
	}
	q, ok := w.queues[matchID]
	if !ok {
		limit := rate.Inf
		if w.cfg.MinInterval > 0 {
			limit = rate.Every(w.cfg.MinInterval)
		}
		q = &writeQueue{limiter: rate.NewLimiter(limit, 1)}
		w.queues[matchID] = q
	}
	if q.pending == nil || q.pending.Version < update.Version {
		u := update
		q.pending = &u
	}
	if !q.inFlight {
		q.inFlight = true
		w.active++
		go w.drain(matchID, q)
	}
	return nil
}

func (w *ScoreWriter) drain(matchID int, q *writeQueue) {
	for {
		w.mu.Lock()
		if q.pending == nil {
			w.finishLocked(q)
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		// пока ждем лимитер, новые снимки заменяют q.pending
		if err := q.limiter.Wait(w.ctx); err != nil {
			w.abandon(matchID, q, err)
			return
		}

		w.mu.Lock()
		update := *q.pending
		q.pending = nil
		w.mu.Unlock()

		err := w.writeWithRetry(w.ctx, matchID, update)
		if w.onResult != nil {
			w.onResult(SyncResult{MatchID: matchID, Version: update.Version, Err: err})
		}
		if w.ctx.Err() != nil {
			w.abandon(matchID, q, w.ctx.Err())
			return
		}
	}
}

// finishLocked помечает очередь свободной. Вызывать под w.mu.
func (w *ScoreWriter) finishLocked(q *writeQueue) {
	q.inFlight = false
	w.active--
	w.idle.Broadcast()
}

func (w *ScoreWriter) abandon(matchID int, q *writeQueue, cause error) {
	w.mu.Lock()
	dropped := q.pending
	q.pending = nil
	w.finishLocked(q)
	w.mu.Unlock()
	if dropped != nil {
		w.logger.Warn("abandoning pending score write", slog.Int("match_id", matchID), slog.Int64("version", dropped.Version), slog.Any("error", cause))
	}
}

func (w *ScoreWriter) writeWithRetry(ctx context.Context, matchID int, update repositories.ScoreUpdate) error {
	delay := w.cfg.BaseDelay
	var err error
	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		err = w.repo.UpdateScore(ctx, matchID, update)
		if err == nil {
			return nil
		}
		if permanentWriteError(err) {
			return err
		}
		if attempt == w.cfg.MaxAttempts {
			break
		}
		w.logger.Warn("score write failed, retrying",
			slog.Int("match_id", matchID),
			slog.Int64("version", update.Version),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.Any("error", err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("score write for match %d abandoned: %w", matchID, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}
	return fmt.Errorf("score write for match %d failed after %d attempts: %w", matchID, w.cfg.MaxAttempts, err)
}

func permanentWriteError(err error) bool {
	return errors.Is(err, repositories.ErrMatchNotFound) ||
		errors.Is(err, repositories.ErrMatchStaleVersion) ||
		errors.Is(err, repositories.ErrMatchInvalid) ||
		errors.Is(err, context.Canceled)
}

// Flush ждет, пока ни у одного матча не останется записей в очереди и в полете, или ctx.
func (w *ScoreWriter) Flush(ctx context.Context) error {
	return w.waitIdle(ctx, func() bool { return w.active == 0 })
}

// FlushMatch ждет только записи matchID. Медленная запись другого корта его не держит.
func (w *ScoreWriter) FlushMatch(ctx context.Context, matchID int) error {
	return w.waitIdle(ctx, func() bool {
		q, ok := w.queues[matchID]
		return !ok || !q.inFlight
	})
}

// waitIdle ждет done под w.mu. done вызывается с захваченным w.mu.
func (w *ScoreWriter) waitIdle(ctx context.Context, done func() bool) error {
	stop := context.AfterFunc(ctx, func() {
		w.mu.Lock()
		w.idle.Broadcast()
		w.mu.Unlock()
	})
	defer stop()

	w.mu.Lock()
	defer w.mu.Unlock()
	for !done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.idle.Wait()
	}
	return nil
}

// Close перестает принимать записи, ждет очередь до истечения ctx и
// бросает то, что еще повторяется.
func (w *ScoreWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	err := w.Flush(ctx)
	w.cancel()
	return err
}
