package coefficients

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// tablesFile is the yaml layout of a coefficient file.
//
// drivers:
//
//	VER: {tierBonus: -0.15, skillBonus: -0.1, consistency: 0.25, elitePasser: true}
//
// tracks:
//
//	Monaco: {passDifficulty: 0.95, laps: 78, safetyCar: 0.8}
//
// defaults:
//
//	consistency: 0.4
type tablesFile struct {
	Drivers  map[string]Driver `yaml:"drivers"`
	Tracks   map[string]Track  `yaml:"tracks"`
	Defaults *defaultsFile     `yaml:"defaults"`
}

type defaultsFile struct {
	Consistency          *float64 `yaml:"consistency"`
	RookiePacePenalty    *float64 `yaml:"rookiePenalty"`
	RookieConsistency    *float64 `yaml:"rookieConsistency"`
	PassDifficulty       *float64 `yaml:"passDifficulty"`
	LapCount             *int     `yaml:"laps"`
	SafetyCarProbability *float64 `yaml:"safetyCar"`
}

// Parse reads tables from yaml. Defaults not given in the file are the
// standard defaults.
func Parse(r io.Reader) (*Tables, error) {
	var f tablesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode coefficient tables: %w", err)
	}
	defaults := StandardDefaults()
	if d := f.Defaults; d != nil {
		defaults.Consistency = deref(d.Consistency, defaults.Consistency)
		defaults.RookiePacePenalty = deref(d.RookiePacePenalty, defaults.RookiePacePenalty)
		defaults.RookieConsistency = deref(d.RookieConsistency, defaults.RookieConsistency)
		defaults.PassDifficulty = deref(d.PassDifficulty, defaults.PassDifficulty)
		defaults.LapCount = deref(d.LapCount, defaults.LapCount)
		defaults.SafetyCarProbability = deref(d.SafetyCarProbability, defaults.SafetyCarProbability)
	}
	return NewTables(f.Drivers, f.Tracks, defaults), nil
}

func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Marshal writes the tables in the format understood by Parse.
func (t *Tables) Marshal(w io.Writer) error {
	d := t.defaults
	f := tablesFile{
		Drivers: t.drivers,
		Tracks:  t.tracks,
		Defaults: &defaultsFile{
			Consistency:          &d.Consistency,
			RookiePacePenalty:    &d.RookiePacePenalty,
			RookieConsistency:    &d.RookieConsistency,
			PassDifficulty:       &d.PassDifficulty,
			LapCount:             &d.LapCount,
			SafetyCarProbability: &d.SafetyCarProbability,
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return err
	}
	return enc.Close()
}
