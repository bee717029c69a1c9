package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRoles(roles []Role) map[Role]int {
	counts := map[Role]int{}
	for _, r := range roles {
		counts[r]++
	}
	return counts
}

func TestAssignRolesPreservesPool(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		roles := assignRoles(-1, 0, rng)
		require.Len(t, roles, NumPlayers)

		counts := countRoles(roles)
		assert.Equal(t, 1, counts[RoleMasterImpostor])
		assert.Equal(t, 1, counts[RoleImpostor])
		assert.Equal(t, 3, counts[RoleCrewmate])
	}
}

func TestAssignRolesOversamplingForcesImpostorTeam(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 100; i++ {
		roles := assignRoles(2, 1.0, rng)

		assert.NotEqual(t, RoleCrewmate, roles[2])

		counts := countRoles(roles)
		assert.Equal(t, 1, counts[RoleMasterImpostor])
		assert.Equal(t, 1, counts[RoleImpostor])
		assert.Equal(t, 3, counts[RoleCrewmate])
	}
}

func TestAssignRolesZeroProbIsUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	crewmate := 0
	trials := 2000
	for i := 0; i < trials; i++ {
		roles := assignRoles(0, 0, rng)
		if roles[0] == RoleCrewmate {
			crewmate++
		}
	}

	// Uniform assignment puts the trainable seat on the crewmate team 3/5 of
	// the time; allow a generous band around it.
	ratio := float64(crewmate) / float64(trials)
	assert.InDelta(t, 0.6, ratio, 0.05)
}

func TestRoleTeam(t *testing.T) {
	assert.Equal(t, "crewmate", RoleCrewmate.Team())
	assert.Equal(t, "impostor", RoleImpostor.Team())
	assert.Equal(t, "impostor", RoleMasterImpostor.Team())
}
