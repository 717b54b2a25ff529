package coefficients

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/racepredict/pkg/model"
)

const (
	DefaultConsistencyVariance  = 0.4
	DefaultPassDifficulty       = 0.3
	DefaultLapCount             = 58
	DefaultSafetyCarProbability = 0.3
)

type (
	// Driver holds the static coefficients of a driver. Nil values are not
	// configured and fall back to the table defaults.
	Driver struct {
		TierBonus         *float64 `yaml:"tierBonus,omitempty"`
		SkillBonus        *float64 `yaml:"skillBonus,omitempty"`
		Consistency       *float64 `yaml:"consistency,omitempty"`
		ElitePasser       bool     `yaml:"elitePasser,omitempty"`
		Rookie            bool     `yaml:"rookie,omitempty"`
		RookiePacePenalty *float64 `yaml:"rookiePenalty,omitempty"`
	}
	Track struct {
		PassDifficulty       *float64 `yaml:"passDifficulty,omitempty"`
		LapCount             *int     `yaml:"laps,omitempty"`
		SafetyCarProbability *float64 `yaml:"safetyCar,omitempty"`
	}
	Defaults struct {
		Consistency          float64 `yaml:"consistency"`
		RookiePacePenalty    float64 `yaml:"rookiePenalty"`
		RookieConsistency    float64 `yaml:"rookieConsistency"`
		PassDifficulty       float64 `yaml:"passDifficulty"`
		LapCount             int     `yaml:"laps"`
		SafetyCarProbability float64 `yaml:"safetyCar"`
	}

	// Tables is the immutable lookup for driver and track coefficients.
	Tables struct {
		drivers  map[string]Driver
		tracks   map[string]Track
		defaults Defaults
	}
)

func StandardDefaults() Defaults {
	return Defaults{
		Consistency:          DefaultConsistencyVariance,
		RookiePacePenalty:    0.05,
		RookieConsistency:    0.8,
		PassDifficulty:       DefaultPassDifficulty,
		LapCount:             DefaultLapCount,
		SafetyCarProbability: DefaultSafetyCarProbability,
	}
}

// NewTables copies the given maps, later changes to them are not visible.
func NewTables(drivers map[string]Driver, tracks map[string]Track, defaults Defaults) *Tables {
	return &Tables{
		drivers:  maps.Clone(drivers),
		tracks:   maps.Clone(tracks),
		defaults: defaults,
	}
}

func (t *Tables) Defaults() Defaults {
	return t.defaults
}

func (t *Tables) DriverIDs() []string {
	return slices.Sorted(maps.Keys(t.drivers))
}

func (t *Tables) TrackNames() []string {
	return slices.Sorted(maps.Keys(t.tracks))
}

// ApplyDriver fills the coefficient fields of entry. Drivers without a table
// entry get the defaults, which are reported in the returned warning.
func (t *Tables) ApplyDriver(entry *model.DriverEntry) *MissingCoefficientWarning {
	d, found := t.drivers[entry.DriverID]

	entry.TeamTierBonus = deref(d.TierBonus, 0)
	entry.SkillPaceBonus = deref(d.SkillBonus, 0)
	entry.ElitePasser = d.ElitePasser
	entry.Rookie = d.Rookie
	entry.RookiePacePenalty = 0
	entry.ConsistencyVariance = deref(d.Consistency, t.defaults.Consistency)
	if d.Rookie {
		entry.ConsistencyVariance = deref(d.Consistency, t.defaults.RookieConsistency)
		entry.RookiePacePenalty = deref(d.RookiePacePenalty, t.defaults.RookiePacePenalty)
	}
	if found {
		return nil
	}
	w := &MissingCoefficientWarning{Subject: SubjectDriver, Key: entry.DriverID}
	w.add("tierBonus", entry.TeamTierBonus)
	w.add("skillBonus", entry.SkillPaceBonus)
	w.add("consistency", entry.ConsistencyVariance)
	w.add("elitePasser", entry.ElitePasser)
	return w
}

// Track resolves the profile for a track name. An exact (case insensitive)
// match is preferred, otherwise the longest table key contained in name is
// used, so "Great Britain Grand Prix" resolves to "Great Britain".
func (t *Tables) Track(name string) (model.TrackProfile, *MissingCoefficientWarning) {
	key, found := t.matchTrack(name)
	tr := t.tracks[key]
	w := &MissingCoefficientWarning{Subject: SubjectTrack, Key: name}
	ret := model.TrackProfile{
		Name:                 name,
		PassDifficulty:       t.defaults.PassDifficulty,
		LapCount:             t.defaults.LapCount,
		SafetyCarProbability: t.defaults.SafetyCarProbability,
	}
	if found {
		ret.Name = key
	}
	if tr.PassDifficulty == nil {
		w.add("passDifficulty", ret.PassDifficulty)
	}
	if tr.LapCount == nil {
		w.add("laps", ret.LapCount)
	}
	if tr.SafetyCarProbability == nil {
		w.add("safetyCar", ret.SafetyCarProbability)
	}
	ret.PassDifficulty = deref(tr.PassDifficulty, ret.PassDifficulty)
	ret.LapCount = deref(tr.LapCount, ret.LapCount)
	ret.SafetyCarProbability = deref(tr.SafetyCarProbability, ret.SafetyCarProbability)
	if len(w.Applied) == 0 {
		return ret, nil
	}
	return ret, w
}

func (t *Tables) matchTrack(name string) (string, bool) {
	lower := strings.ToLower(name)
	keys := t.TrackNames()
	if key, ok := lo.Find(keys, func(k string) bool { return strings.ToLower(k) == lower }); ok {
		return key, true
	}
	candidates := lo.Filter(keys, func(k string, _ int) bool {
		return k != "" && strings.Contains(lower, strings.ToLower(k))
	})
	if len(candidates) == 0 {
		return "", false
	}
	return lo.MaxBy(candidates, func(a, b string) bool { return len(a) > len(b) }), true
}

func (t *Tables) String() string {
	return fmt.Sprintf("Tables{drivers: %d, tracks: %d}", len(t.drivers), len(t.tracks))
}

func deref[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
