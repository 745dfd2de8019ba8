package round_test

import (
	"testing"

	"github.com/ganot/progen/internal/domain/round"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Validate(t *testing.T) {
	reg := round.NewRegistry()
	require.NoError(t, reg.Validate())
	require.Equal(t, 7, reg.Total())
}

func TestRegistry_Get(t *testing.T) {
	reg := round.NewRegistry()

	def, ok := reg.Get(1)
	require.True(t, ok)
	require.Equal(t, 1, def.Round)
	require.True(t, def.RequiresSynthesis)

	_, ok = reg.Get(0)
	require.False(t, ok)
	_, ok = reg.Get(reg.Total() + 1)
	require.False(t, ok)
}

func TestRegistry_ParticipantIDs_ExpandsAll(t *testing.T) {
	reg := round.NewRegistry()

	ids := reg.ParticipantIDs(1)
	require.Len(t, ids, 6)
	require.NotContains(t, ids, round.All)
	require.Contains(t, ids, round.ParticipantTechArchitecture)
	require.Contains(t, ids, round.ParticipantFinanceResources)

	ids = reg.ParticipantIDs(6)
	require.Equal(t, []string{round.ParticipantFinanceResources}, ids)

	require.Nil(t, reg.ParticipantIDs(99))
}

func TestRegistry_InputsReferenceEarlierRounds(t *testing.T) {
	reg := round.NewRegistry()
	for n := 1; n <= reg.Total(); n++ {
		def, ok := reg.Get(n)
		require.True(t, ok)
		for _, in := range def.InputFromRounds {
			require.Less(t, in, def.Round)
			require.GreaterOrEqual(t, in, 1)
		}
	}
}
