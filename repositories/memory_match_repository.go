package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/scoreboard/models"
)

// MemoryMatchRepository держит матчи в памяти процесса: локальный запуск без БД и тесты.
type MemoryMatchRepository struct {
	mu      sync.RWMutex
	nextID  int
	matches map[int]*models.Match
	now     func() time.Time
}

func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{
		nextID:  1,
		matches: make(map[int]*models.Match),
		now:     time.Now,
	}
}

func (r *MemoryMatchRepository) Create(ctx context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insertLocked(match)
	return nil
}

func (r *MemoryMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, match := range matches {
		r.insertLocked(match)
	}
	return nil
}

func (r *MemoryMatchRepository) insertLocked(match *models.Match) {
	now := r.now().UTC()
	match.ID = r.nextID
	match.CreatedAt = now
	match.UpdatedAt = now
	r.nextID++
	r.matches[match.ID] = match.Clone()
}

func (r *MemoryMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r *MemoryMatchRepository) List(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*models.Match, 0, len(r.matches))
	for _, m := range r.matches {
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.Sport != nil && m.Sport != *filter.Sport {
			continue
		}
		matches = append(matches, m.Clone())
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i].ScheduledAt, matches[j].ScheduledAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return matches[i].ID < matches[j].ID
	})

	if filter.Offset >= len(matches) {
		return []*models.Match{}, nil
	}
	matches = matches[filter.Offset:]
	if limit := listLimit(filter.Limit); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *MemoryMatchRepository) UpdateScore(ctx context.Context, id int, update ScoreUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	if update.Version <= m.Version {
		return ErrMatchStaleVersion
	}
	m.State = update.State
	m.Status = update.Status
	m.Winner = nil
	if update.Winner != nil {
		w := *update.Winner
		m.Winner = &w
	}
	m.Version = update.Version
	m.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryMatchRepository) SetArchiveURL(ctx context.Context, id int, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	m.ArchiveURL = &url
	return nil
}

func (r *MemoryMatchRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}
