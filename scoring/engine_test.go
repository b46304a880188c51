package scoring

import (
	"math/rand"
	"testing"

	"github.com/Dosada05/scoreboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bestOfThree() models.MatchConfiguration {
	return models.MatchConfiguration{Sets: 3, TiebreakEnabled: true}
}

func award(t *testing.T, state models.MatchState, side models.Side, n int) models.MatchState {
	t.Helper()
	for i := 0; i < n; i++ {
		var err error
		state, err = AwardPoint(state, side)
		require.NoError(t, err)
	}
	return state
}

func withGames(state models.MatchState, a, b int) models.MatchState {
	state.TeamA.Games = a
	state.TeamB.Games = b
	return state
}

func withPoints(state models.MatchState, a, b models.PointScore) models.MatchState {
	state.TeamA.Points = a
	state.TeamB.Points = b
	return state
}

func TestAwardPoint_Ladder(t *testing.T) {
	state := models.NewMatchState(bestOfThree(), models.SideA)

	want := []models.PointScore{models.PointFifteen, models.PointThirty, models.PointForty}
	for _, w := range want {
		state = award(t, state, models.SideA, 1)
		assert.Equal(t, w, state.TeamA.Points)
		assert.Equal(t, models.PointLove, state.TeamB.Points)
		assert.Equal(t, 0, state.TeamA.Games)
	}
}

func TestAwardPoint_FourStraightPointsWinGame(t *testing.T) {
	start := models.NewMatchState(bestOfThree(), models.SideA)

	state := award(t, start, models.SideA, 4)

	assert.Equal(t, 1, state.TeamA.Games)
	assert.Equal(t, 0, state.TeamB.Games)
	assert.Equal(t, models.PointLove, state.TeamA.Points)
	assert.Equal(t, models.PointLove, state.TeamB.Points)
	assert.False(t, state.TeamA.IsServing)
	assert.True(t, state.TeamB.IsServing)
}

func TestAwardPoint_Deuce(t *testing.T) {
	deuce := withPoints(models.NewMatchState(bestOfThree(), models.SideA), models.PointForty, models.PointForty)

	adv := award(t, deuce, models.SideA, 1)
	assert.Equal(t, models.PointAdvantage, adv.TeamA.Points)
	assert.Equal(t, models.PointForty, adv.TeamB.Points)

	back := award(t, adv, models.SideB, 1)
	assert.Equal(t, models.PointForty, back.TeamA.Points, "advantage must be cancelled")
	assert.Equal(t, models.PointForty, back.TeamB.Points, "opponent must not jump to advantage")
	assert.Equal(t, 0, back.TeamA.Games)
	assert.Equal(t, 0, back.TeamB.Games)

	won := award(t, adv, models.SideA, 1)
	assert.Equal(t, 1, won.TeamA.Games)
	assert.Equal(t, models.PointLove, won.TeamA.Points)
	assert.Equal(t, models.PointLove, won.TeamB.Points)
}

func TestAwardPoint_GoldenPoint(t *testing.T) {
	cfg := bestOfThree()
	cfg.GoldenPointEnabled = true
	deuce := withPoints(models.NewMatchState(cfg, models.SideB), models.PointForty, models.PointForty)

	state := award(t, deuce, models.SideA, 1)

	assert.Equal(t, 1, state.TeamA.Games)
	assert.Equal(t, models.PointLove, state.TeamA.Points)
	assert.Equal(t, models.PointLove, state.TeamB.Points)
	assert.True(t, state.TeamA.IsServing)
	assert.False(t, state.TeamB.IsServing)
}

func TestAwardPoint_FortyAgainstLowerScoreWinsGame(t *testing.T) {
	state := withPoints(models.NewMatchState(bestOfThree(), models.SideA), models.PointForty, models.PointThirty)

	state = award(t, state, models.SideA, 1)

	assert.Equal(t, 1, state.TeamA.Games)
	assert.Equal(t, models.PointLove, state.TeamB.Points)
}

func TestAwardPoint_SetWin(t *testing.T) {
	tests := []struct {
		name       string
		cfg        models.MatchConfiguration
		gamesA     int
		gamesB     int
		pointsForA int
		wantSetsA  int
		wantGamesA int
		wantGamesB int
	}{
		{name: "7-5 after 5-5", cfg: bestOfThree(), gamesA: 5, gamesB: 5, pointsForA: 8, wantSetsA: 1},
		{name: "6-4 margin", cfg: bestOfThree(), gamesA: 5, gamesB: 4, pointsForA: 4, wantSetsA: 1},
		{name: "6-5 is not a set", cfg: bestOfThree(), gamesA: 5, gamesB: 5, pointsForA: 4, wantGamesA: 6, wantGamesB: 5},
		{name: "7-6 tiebreak", cfg: bestOfThree(), gamesA: 6, gamesB: 6, pointsForA: 4, wantSetsA: 1},
		{name: "7-6 without tiebreak continues", cfg: models.MatchConfiguration{Sets: 3}, gamesA: 6, gamesB: 6, pointsForA: 4, wantGamesA: 7, wantGamesB: 6},
		{name: "8-6 without tiebreak", cfg: models.MatchConfiguration{Sets: 3}, gamesA: 6, gamesB: 6, pointsForA: 8, wantSetsA: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := withGames(models.NewMatchState(tt.cfg, models.SideA), tt.gamesA, tt.gamesB)

			state = award(t, state, models.SideA, tt.pointsForA)

			assert.Equal(t, tt.wantSetsA, state.TeamA.Sets)
			assert.Equal(t, 0, state.TeamB.Sets)
			assert.Equal(t, tt.wantGamesA, state.TeamA.Games)
			assert.Equal(t, tt.wantGamesB, state.TeamB.Games)
			assert.Equal(t, models.PointLove, state.TeamA.Points)
			assert.Equal(t, models.PointLove, state.TeamB.Points)
		})
	}
}

func TestAwardPoint_ChampionshipTiebreakOnlyInDecidingSet(t *testing.T) {
	cfg := models.MatchConfiguration{Sets: 3, ChampionshipTiebreakEnabled: true}

	first := withGames(models.NewMatchState(cfg, models.SideA), 6, 6)
	assert.False(t, IsTiebreak(first))
	first = award(t, first, models.SideA, 4)
	assert.Equal(t, 0, first.TeamA.Sets, "first set has no tiebreak")
	assert.Equal(t, 7, first.TeamA.Games)

	decider := withGames(models.NewMatchState(cfg, models.SideA), 6, 6)
	decider.TeamA.Sets = 1
	decider.TeamB.Sets = 1
	assert.True(t, IsChampionshipTiebreak(decider))
	decider = award(t, decider, models.SideB, 4)
	assert.Equal(t, 2, decider.TeamB.Sets)
	assert.True(t, IsMatchComplete(decider))
}

func TestAwardPoint_FrozenAfterMatchComplete(t *testing.T) {
	state := models.NewMatchState(bestOfThree(), models.SideA)
	state.TeamA.Sets = 1
	state = withGames(state, 5, 0)

	state = award(t, state, models.SideA, 4)
	require.True(t, IsMatchComplete(state))
	assert.Equal(t, 2, state.TeamA.Sets)

	winner, ok := Winner(state)
	assert.True(t, ok)
	assert.Equal(t, models.SideA, winner)

	for _, side := range []models.Side{models.SideA, models.SideB} {
		next, err := AwardPoint(state, side)
		require.NoError(t, err)
		assert.Equal(t, state, next)
	}
}

func TestAwardPoint_BestOfFiveThreshold(t *testing.T) {
	cfg := models.MatchConfiguration{Sets: 5}
	state := models.NewMatchState(cfg, models.SideA)
	state.TeamA.Sets = 2

	assert.Equal(t, 3, WinThreshold(cfg))
	assert.False(t, IsMatchComplete(state))

	state.TeamA.Sets = 3
	assert.True(t, IsMatchComplete(state))
}

func TestAwardPoint_InvalidTeam(t *testing.T) {
	state := withPoints(models.NewMatchState(bestOfThree(), models.SideA), models.PointThirty, models.PointFifteen)

	next, err := AwardPoint(state, models.Side("C"))

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, state, next)

	_, err = RevertPoint(state, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRevertPoint(t *testing.T) {
	tests := []struct {
		from models.PointScore
		want models.PointScore
	}{
		{models.PointLove, models.PointLove},
		{models.PointFifteen, models.PointLove},
		{models.PointThirty, models.PointFifteen},
		{models.PointForty, models.PointThirty},
		{models.PointAdvantage, models.PointForty},
	}

	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			state := withGames(models.NewMatchState(bestOfThree(), models.SideA), 3, 2)
			state.TeamB.Points = tt.from

			next, err := RevertPoint(state, models.SideB)

			require.NoError(t, err)
			assert.Equal(t, tt.want, next.TeamB.Points)
			assert.Equal(t, state.TeamA, next.TeamA)
			assert.Equal(t, 2, next.TeamB.Games)
			assert.Equal(t, state.TeamB.IsServing, next.TeamB.IsServing)
		})
	}
}

func TestRevertPoint_DoesNotUndoGameWin(t *testing.T) {
	state := withPoints(models.NewMatchState(bestOfThree(), models.SideA), models.PointForty, models.PointLove)

	won := award(t, state, models.SideA, 1)
	require.Equal(t, 1, won.TeamA.Games)

	reverted, err := RevertPoint(won, models.SideA)

	require.NoError(t, err)
	assert.Equal(t, won, reverted)
	assert.Equal(t, 1, reverted.TeamA.Games)
}

func TestSwitchServer(t *testing.T) {
	tests := []struct {
		name   string
		aServe bool
		bServe bool
	}{
		{"A serving", true, false},
		{"B serving", false, true},
		{"both serving", true, true},
		{"nobody serving", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.NewMatchState(bestOfThree(), models.SideA)
			state.TeamA.IsServing = tt.aServe
			state.TeamB.IsServing = tt.bServe

			next := SwitchServer(state)

			assert.NotEqual(t, next.TeamA.IsServing, next.TeamB.IsServing)
			assert.Equal(t, !tt.aServe, next.TeamA.IsServing)
		})
	}
}

func TestResetMatch(t *testing.T) {
	state := models.NewMatchState(bestOfThree(), models.SideA)
	state.TeamA = models.TeamScoreState{Points: models.PointAdvantage, Games: 4, Sets: 1, IsServing: false}
	state.TeamB = models.TeamScoreState{Points: models.PointForty, Games: 3, Sets: 1, IsServing: true}

	next := ResetMatch(state)

	assert.Equal(t, models.TeamScoreState{IsServing: false}, next.TeamA)
	assert.Equal(t, models.TeamScoreState{IsServing: true}, next.TeamB)
	assert.Equal(t, state.Config, next.Config)
}

func TestValidateConfiguration(t *testing.T) {
	for _, sets := range []int{3, 5} {
		assert.NoError(t, ValidateConfiguration(models.MatchConfiguration{Sets: sets}))
	}
	for _, sets := range []int{0, 1, 2, 4, 7} {
		assert.ErrorIs(t, ValidateConfiguration(models.MatchConfiguration{Sets: sets}), ErrInvalidConfiguration)
	}
}

func TestRandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	configs := []models.MatchConfiguration{
		{Sets: 3},
		{Sets: 3, TiebreakEnabled: true},
		{Sets: 5, TiebreakEnabled: true, ChampionshipTiebreakEnabled: true},
		{Sets: 3, GoldenPointEnabled: true},
	}

	for _, cfg := range configs {
		state := models.NewMatchState(cfg, models.SideA)
		threshold := WinThreshold(cfg)

		for i := 0; i < 2000; i++ {
			side := models.SideA
			if rng.Intn(2) == 1 {
				side = models.SideB
			}
			var err error
			if rng.Intn(10) == 0 {
				state, err = RevertPoint(state, side)
			} else {
				state, err = AwardPoint(state, side)
			}
			require.NoError(t, err)

			for _, team := range []models.TeamScoreState{state.TeamA, state.TeamB} {
				require.True(t, team.Points.Valid(), "point score out of range: %d", team.Points)
				require.LessOrEqual(t, team.Sets, threshold)
				require.GreaterOrEqual(t, team.Games, 0)
			}
			require.NotEqual(t, state.TeamA.IsServing, state.TeamB.IsServing)
			require.False(t, state.TeamA.Points == models.PointAdvantage && state.TeamB.Points == models.PointAdvantage)

			if IsMatchComplete(state) {
				break
			}
		}
	}
}
