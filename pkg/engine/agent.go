package engine

import (
	"math/rand"

	"github.com/impostorlabs/arena/pkg/protocol"
)

// Role is an agent's hidden role, fixed at setup.
type Role string

const (
	RoleCrewmate       Role = "crewmate"
	RoleImpostor       Role = "impostor"
	RoleMasterImpostor Role = "master_impostor"
)

// Team returns the winning-team label for the role.
func (r Role) Team() string {
	if r == RoleCrewmate {
		return protocol.TeamCrewmate
	}
	return protocol.TeamImpostor
}

// Agent is one seat in a game.
type Agent struct {
	ID        string
	Role      Role
	Trainable bool
}

// NumPlayers is the only supported table size.
const NumPlayers = 5

// baseRoles is the five-player role pool: one Master Impostor, one Impostor,
// three Crewmates.
var baseRoles = []Role{
	RoleMasterImpostor,
	RoleImpostor,
	RoleCrewmate,
	RoleCrewmate,
	RoleCrewmate,
}

// assignRoles shuffles the role pool over the five seats. When a trainable
// seat exists and oversampleProb fires, the trainable agent is forced onto
// the impostor team (picking uniformly between the two impostor roles) and
// the rest shuffle over the remaining seats. Oversampling biases training
// data toward the minority team; it never changes the pool itself.
func assignRoles(trainableIdx int, oversampleProb float64, rng *rand.Rand) []Role {
	if trainableIdx >= 0 && oversampleProb > 0 && rng.Float64() < oversampleProb {
		impostorRoles := []Role{RoleMasterImpostor, RoleImpostor}
		trainableRole := impostorRoles[rng.Intn(len(impostorRoles))]

		remaining := make([]Role, 0, len(baseRoles)-1)
		removed := false
		for _, r := range baseRoles {
			if !removed && r == trainableRole {
				removed = true
				continue
			}
			remaining = append(remaining, r)
		}
		rng.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})

		assigned := make([]Role, len(baseRoles))
		next := 0
		for i := range assigned {
			if i == trainableIdx {
				assigned[i] = trainableRole
			} else {
				assigned[i] = remaining[next]
				next++
			}
		}
		return assigned
	}

	assigned := append([]Role(nil), baseRoles...)
	rng.Shuffle(len(assigned), func(i, j int) {
		assigned[i], assigned[j] = assigned[j], assigned[i]
	})
	return assigned
}
