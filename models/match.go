package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type MatchStatus string

const (
	StatusScheduled      MatchStatus = "scheduled"
	StatusInProgress     MatchStatus = "in_progress"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCanceled  MatchStatus = "canceled"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, MatchStatusCompleted, MatchStatusCanceled:
		return true
	}
	return false
}

// Side: одна из двух команд на корте.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Opponent возвращает соперника. Для невалидной стороны вернет "".
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return ""
}

// PointScore: очко внутри гейма, лестница 0, 15, 30, 40, больше.
type PointScore int

const (
	PointLove PointScore = iota
	PointFifteen
	PointThirty
	PointForty
	PointAdvantage
)

var pointLabels = [...]string{"0", "15", "30", "40", "AD"}

func (p PointScore) Valid() bool {
	return p >= PointLove && p <= PointAdvantage
}

func (p PointScore) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PointScore(%d)", int(p))
	}
	return pointLabels[p]
}

// ParsePointScore принимает подписи табло: "0", "15", "30", "40", "AD".
func ParsePointScore(s string) (PointScore, error) {
	for i, label := range pointLabels {
		if label == s {
			return PointScore(i), nil
		}
	}
	return PointLove, fmt.Errorf("invalid point score %q", s)
}

func (p PointScore) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", p)
	}
	return json.Marshal(p.String())
}

func (p *PointScore) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("point score must be a string: %w", err)
	}
	parsed, err := ParsePointScore(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MatchConfiguration задается при создании матча и дальше не меняется.
type MatchConfiguration struct {
	Sets                        int  `json:"sets"` // 3 или 5
	TiebreakEnabled             bool `json:"tiebreak_enabled"`
	ChampionshipTiebreakEnabled bool `json:"championship_tiebreak_enabled"`
	GoldenPointEnabled          bool `json:"golden_point_enabled"`
}

type TeamScoreState struct {
	Points    PointScore `json:"point_score"`
	Games     int        `json:"games"`
	Sets      int        `json:"sets"`
	IsServing bool       `json:"is_serving"`
}

// MatchState: значение, которое пересчитывает движок счета. ID в нем нет.
type MatchState struct {
	TeamA  TeamScoreState     `json:"team_a"`
	TeamB  TeamScoreState     `json:"team_b"`
	Config MatchConfiguration `json:"config"`
}

// Team возвращает указатель на счет стороны внутри s, nil для невалидной стороны.
func (s *MatchState) Team(side Side) *TeamScoreState {
	switch side {
	case SideA:
		return &s.TeamA
	case SideB:
		return &s.TeamB
	}
	return nil
}

// Server возвращает подающую сторону.
func (s MatchState) Server() Side {
	if s.TeamB.IsServing && !s.TeamA.IsServing {
		return SideB
	}
	return SideA
}

// NewMatchState: счет 0-0, подает firstServer.
func NewMatchState(cfg MatchConfiguration, firstServer Side) MatchState {
	return MatchState{
		TeamA:  TeamScoreState{IsServing: firstServer != SideB},
		TeamB:  TeamScoreState{IsServing: firstServer == SideB},
		Config: cfg,
	}
}

// Match это запись матча, которую хранит репозиторий и показывает табло.
type Match struct {
	ID          int         `json:"id" db:"id"`
	Sport       Sport       `json:"sport" db:"sport"`
	TeamAName   string      `json:"team_a_name" db:"team_a_name"`
	TeamBName   string      `json:"team_b_name" db:"team_b_name"`
	Court       *string     `json:"court,omitempty" db:"court"`
	Status      MatchStatus `json:"status" db:"status"`
	State       MatchState  `json:"state" db:"-"`
	Version     int64       `json:"version" db:"version"`
	Winner      *Side       `json:"winner,omitempty" db:"winner"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty" db:"scheduled_at"`
	ArchiveURL  *string     `json:"archive_url,omitempty" db:"archive_url"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`

	// Заполняются сервисом из живого табло, в БД не хранятся
	LastSyncError        *string `json:"last_sync_error,omitempty" db:"-"`
	Tiebreak             bool    `json:"tiebreak" db:"-"`
	ChampionshipTiebreak bool    `json:"championship_tiebreak" db:"-"`
}

// Clone возвращает копию без общих указателей с m.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	if m.Court != nil {
		v := *m.Court
		c.Court = &v
	}
	if m.Winner != nil {
		v := *m.Winner
		c.Winner = &v
	}
	if m.ScheduledAt != nil {
		v := *m.ScheduledAt
		c.ScheduledAt = &v
	}
	if m.ArchiveURL != nil {
		v := *m.ArchiveURL
		c.ArchiveURL = &v
	}
	if m.LastSyncError != nil {
		v := *m.LastSyncError
		c.LastSyncError = &v
	}
	return &c
}
