package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	in := sampleInput()
	// CCC gets enough pace to jump the two cars ahead
	in.Entries[2].TeamTierBonus = -0.25
	in.Entries[2].SkillPaceBonus = -0.7
	got, err := Project(in, DefaultBaseMarkup)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.DriverID
	}
	assert.Equal(t, []string{"CCC", "AAA", "BBB", "DDD"}, ids)
	assert.InDelta(t, got[1].Pace*58, got[1].RaceTime, 1e-9)
	assert.InDelta(t, 80+5+0.15, got[1].Pace, 1e-9)
}

func TestProject_invalid(t *testing.T) {
	in := sampleInput()
	in.Entries = nil
	_, err := Project(in, DefaultBaseMarkup)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
