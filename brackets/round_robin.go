package brackets

import (
	"context"
	"fmt"
	"strings"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() PairingGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// Generate сводит каждую команду с каждой круговым методом: первая команда
// стоит на месте, остальные вращаются, поэтому в туре команда играет не больше
// одного раза. При нечетном числе команд одна команда в каждом туре отдыхает.
// Второй круг повторяет первый со сменой сторон.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Pairing, error) {
	legs := params.Legs
	if legs == 0 {
		legs = 1
	}
	if legs != 1 && legs != 2 {
		return nil, ErrInvalidLegs
	}
	if len(params.Teams) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: %w (found %d)", ErrNotEnoughTeams, len(params.Teams))
	}

	seen := make(map[string]struct{}, len(params.Teams))
	for _, name := range params.Teams {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, ErrEmptyTeamName
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTeam, name)
		}
		seen[key] = struct{}{}
	}

	// пустой слот: команда отдыхает
	slots := make([]string, 0, len(params.Teams)+1)
	for _, name := range params.Teams {
		slots = append(slots, strings.TrimSpace(name))
	}
	if len(slots)%2 == 1 {
		slots = append(slots, "")
	}
	n := len(slots)
	roundsPerLeg := n - 1

	firstLeg := make([]*Pairing, 0, n/2*roundsPerLeg)
	for round := 1; round <= roundsPerLeg; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		order := 0
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == "" || away == "" {
				continue
			}
			// неподвижная команда меняет сторону через тур
			if i == 0 && round%2 == 0 {
				home, away = away, home
			}
			order++
			firstLeg = append(firstLeg, &Pairing{
				UID:          fmt.Sprintf("RR_L1_R%d_M%d", round, order),
				Round:        round,
				OrderInRound: order,
				Leg:          1,
				TeamA:        home,
				TeamB:        away,
			})
		}
		rotate(slots)
	}

	if legs == 1 {
		return firstLeg, nil
	}

	pairings := make([]*Pairing, 0, 2*len(firstLeg))
	pairings = append(pairings, firstLeg...)
	for _, p := range firstLeg {
		round := p.Round + roundsPerLeg
		pairings = append(pairings, &Pairing{
			UID:          fmt.Sprintf("RR_L2_R%d_M%d", round, p.OrderInRound),
			Round:        round,
			OrderInRound: p.OrderInRound,
			Leg:          2,
			TeamA:        p.TeamB,
			TeamB:        p.TeamA,
		})
	}
	return pairings, nil
}

// rotate оставляет slots[0] на месте и переносит последний слот на позицию 1.
func rotate(slots []string) {
	if len(slots) < 3 {
		return
	}
	last := slots[len(slots)-1]
	copy(slots[2:], slots[1:len(slots)-1])
	slots[1] = last
}
