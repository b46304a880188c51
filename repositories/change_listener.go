package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// MatchChangesChannel: канал NOTIFY, в который пишет триггер таблицы matches.
const MatchChangesChannel = "match_changes"

type MatchChangeOp string

const (
	MatchChangeInsert MatchChangeOp = "INSERT"
	MatchChangeUpdate MatchChangeOp = "UPDATE"
	MatchChangeDelete MatchChangeOp = "DELETE"
	// MatchChangeResync приходит после переподключения, когда уведомления могли потеряться.
	MatchChangeResync MatchChangeOp = "RESYNC"
)

type MatchChange struct {
	ID      int           `json:"id"`
	Version int64         `json:"version"`
	Op      MatchChangeOp `json:"op"`
}

func ParseMatchChange(payload string) (MatchChange, error) {
	var change MatchChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return MatchChange{}, fmt.Errorf("invalid match change payload %q: %w", payload, err)
	}
	switch change.Op {
	case MatchChangeInsert, MatchChangeUpdate, MatchChangeDelete:
	default:
		return MatchChange{}, fmt.Errorf("unknown match change op %q", change.Op)
	}
	if change.ID <= 0 {
		return MatchChange{}, fmt.Errorf("match change without id: %q", payload)
	}
	return change, nil
}

// ChangeListener слушает ленту изменений таблицы matches в Postgres.
type ChangeListener struct {
	dsn                  string
	logger               *slog.Logger
	minReconnectInterval time.Duration
	maxReconnectInterval time.Duration
	pingInterval         time.Duration
}

func NewChangeListener(dsn string, logger *slog.Logger) *ChangeListener {
	return &ChangeListener{
		dsn:                  dsn,
		logger:               logger,
		minReconnectInterval: 10 * time.Second,
		maxReconnectInterval: time.Minute,
		pingInterval:         90 * time.Second,
	}
}

// Run блокируется до отмены ctx и передает каждое изменение в handle.
func (l *ChangeListener) Run(ctx context.Context, handle func(context.Context, MatchChange)) error {
	listener := pq.NewListener(l.dsn, l.minReconnectInterval, l.maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				l.logger.Warn("change listener connection event", slog.Int("event", int(ev)), slog.Any("error", err))
			}
		})
	defer func() {
		if err := listener.Close(); err != nil {
			l.logger.Error("failed to close change listener", slog.Any("error", err))
		}
	}()

	if err := listener.Listen(MatchChangesChannel); err != nil {
		return fmt.Errorf("listen %s: %w", MatchChangesChannel, err)
	}
	l.logger.Info("change listener started", slog.String("channel", MatchChangesChannel))

	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("change listener stopped")
			return nil
		case n := <-listener.Notify:
			if n == nil {
				// после переподключения pq присылает nil
				handle(ctx, MatchChange{Op: MatchChangeResync})
				continue
			}
			change, err := ParseMatchChange(n.Extra)
			if err != nil {
				l.logger.Warn("skipping malformed match change", slog.Any("error", err))
				continue
			}
			handle(ctx, change)
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.logger.Warn("change listener ping failed", slog.Any("error", err))
				}
			}()
		}
	}
}
