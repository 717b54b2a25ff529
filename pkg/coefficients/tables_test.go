//nolint:funlen // ok for tests
package coefficients

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racepredict/pkg/model"
)

func TestTables_ApplyDriver(t *testing.T) {
	tables := Season2026()
	tests := []struct {
		name        string
		driver      string
		want        model.DriverEntry
		wantWarning bool
	}{
		{
			name:   "tier 1 elite",
			driver: "NOR",
			want: model.DriverEntry{
				DriverID: "NOR", TeamTierBonus: -0.25, SkillPaceBonus: -0.1,
				ConsistencyVariance: 0.25, ElitePasser: true,
			},
		},
		{
			name:   "tier 2 elite",
			driver: "VER",
			want: model.DriverEntry{
				DriverID: "VER", TeamTierBonus: -0.15, SkillPaceBonus: -0.1,
				ConsistencyVariance: 0.25, ElitePasser: true,
			},
		},
		{
			name:   "tier 1 rookie",
			driver: "ANT",
			want: model.DriverEntry{
				DriverID: "ANT", TeamTierBonus: -0.25, ConsistencyVariance: 0.8,
				Rookie: true, RookiePacePenalty: 0.05,
			},
		},
		{
			name:   "tier 1 regular",
			driver: "PIA",
			want:   model.DriverEntry{DriverID: "PIA", TeamTierBonus: -0.25, ConsistencyVariance: 0.4},
		},
		{
			name:   "known midfield driver",
			driver: "GAS",
			want:   model.DriverEntry{DriverID: "GAS", ConsistencyVariance: 0.4},
		},
		{
			name:        "unknown driver",
			driver:      "XYZ",
			want:        model.DriverEntry{DriverID: "XYZ", ConsistencyVariance: 0.4},
			wantWarning: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.DriverEntry{DriverID: tt.driver, TeamTierBonus: -9, ElitePasser: true}
			w := tables.ApplyDriver(&got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ApplyDriver() mismatch (-want +got):\n%s", diff)
			}
			if !tt.wantWarning {
				assert.Nil(t, w)
				return
			}
			require.NotNil(t, w)
			assert.Equal(t, SubjectDriver, w.Subject)
			assert.Equal(t,
				`driver "XYZ": using defaults tierBonus=0, skillBonus=0, consistency=0.4, elitePasser=false`,
				w.String())
		})
	}
}

func TestTables_Track(t *testing.T) {
	tables := Season2026()
	tests := []struct {
		name        string
		track       string
		want        model.TrackProfile
		wantApplied []string
	}{
		{
			name:  "exact",
			track: "Monaco",
			want:  model.TrackProfile{Name: "Monaco", PassDifficulty: 0.95, LapCount: 78, SafetyCarProbability: 0.8},
		},
		{
			name:  "case insensitive",
			track: "singapore",
			want:  model.TrackProfile{Name: "Singapore", PassDifficulty: 0.85, LapCount: 62, SafetyCarProbability: 1.0},
		},
		{
			name:  "contained key",
			track: "Great Britain Grand Prix",
			want: model.TrackProfile{
				Name: "Great Britain", PassDifficulty: 0.4, LapCount: 52, SafetyCarProbability: 0.6,
			},
		},
		{
			name:        "partially known",
			track:       "Las Vegas",
			want:        model.TrackProfile{Name: "Las Vegas", PassDifficulty: 0.3, LapCount: 50, SafetyCarProbability: 0.3},
			wantApplied: []string{"passDifficulty", "safetyCar"},
		},
		{
			name:        "unknown",
			track:       "Kyalami",
			want:        model.TrackProfile{Name: "Kyalami", PassDifficulty: 0.3, LapCount: 58, SafetyCarProbability: 0.3},
			wantApplied: []string{"passDifficulty", "laps", "safetyCar"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, w := tables.Track(tt.track)
			assert.Equal(t, tt.want, got)
			if len(tt.wantApplied) == 0 {
				assert.Nil(t, w)
				return
			}
			require.NotNil(t, w)
			names := make([]string, len(w.Applied))
			for i, a := range w.Applied {
				names[i] = a.Name
			}
			assert.Equal(t, tt.wantApplied, names)
			assert.Equal(t, tt.track, w.Key)
		})
	}
}

func TestTables_immutable(t *testing.T) {
	drivers := map[string]Driver{"AAA": {TierBonus: ptr(-0.1)}}
	tables := NewTables(drivers, nil, StandardDefaults())
	drivers["BBB"] = Driver{}

	assert.Equal(t, []string{"AAA"}, tables.DriverIDs())
	assert.Empty(t, tables.TrackNames())
}

func TestParse(t *testing.T) {
	data := `
drivers:
  AAA: {tierBonus: -0.2, skillBonus: -0.05, consistency: 0.3, elitePasser: true}
  ROO: {rookie: true, rookiePenalty: 0.1}
tracks:
  Imola: {passDifficulty: 0.75, laps: 63, safetyCar: 0.4}
defaults:
  consistency: 0.5
  laps: 60
`
	tables, err := Parse(strings.NewReader(data))
	require.NoError(t, err)

	a := model.DriverEntry{DriverID: "AAA"}
	assert.Nil(t, tables.ApplyDriver(&a))
	assert.Equal(t, model.DriverEntry{
		DriverID: "AAA", TeamTierBonus: -0.2, SkillPaceBonus: -0.05,
		ConsistencyVariance: 0.3, ElitePasser: true,
	}, a)

	r := model.DriverEntry{DriverID: "ROO"}
	tables.ApplyDriver(&r)
	assert.Equal(t, 0.8, r.ConsistencyVariance)
	assert.Equal(t, 0.1, r.RookiePacePenalty)

	u := model.DriverEntry{DriverID: "UNK"}
	assert.NotNil(t, tables.ApplyDriver(&u))
	assert.Equal(t, 0.5, u.ConsistencyVariance)

	track, w := tables.Track("Emilia Romagna (Imola)")
	assert.Nil(t, w)
	assert.Equal(t, 63, track.LapCount)

	_, w = tables.Track("Zandvoort")
	require.NotNil(t, w)
	other, _ := tables.Track("Zandvoort")
	assert.Equal(t, 60, other.LapCount)
}

func TestParse_errors(t *testing.T) {
	_, err := Parse(strings.NewReader("drivers:\n  AAA: {speed: 3}\n"))
	assert.Error(t, err)

	tables, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, StandardDefaults(), tables.Defaults())
}

func TestTables_MarshalRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Season2026().Marshal(buf))
	parsed, err := Parse(buf)
	require.NoError(t, err)

	assert.Equal(t, Season2026().DriverIDs(), parsed.DriverIDs())
	for _, id := range parsed.DriverIDs() {
		want := model.DriverEntry{DriverID: id}
		got := model.DriverEntry{DriverID: id}
		Season2026().ApplyDriver(&want)
		parsed.ApplyDriver(&got)
		assert.Equal(t, want, got, id)
	}
}
