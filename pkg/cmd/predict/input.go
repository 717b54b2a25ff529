package predict

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/racepredict/pkg/model"
)

// qualifyingFile is the input of the predict command
//
//	track: Monaco
//	poleTime: 70.27
//	qualifying:
//	  - driver: NOR
//	    grid: 1
//	    q3: 70.27
type qualifyingFile struct {
	Track      string                   `yaml:"track"`
	PoleTime   *float64                 `yaml:"poleTime,omitempty"`
	Qualifying []model.QualifyingResult `yaml:"qualifying"`
}

var errNoQualifying = errors.New("input contains no qualifying results")

func readInputFile(path string, stdin io.Reader) (*qualifyingFile, error) {
	if path == "" || path == "-" {
		return parseInput(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret, err := parseInput(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ret, nil
}

func parseInput(r io.Reader) (*qualifyingFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var ret qualifyingFile
	if err := dec.Decode(&ret); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errNoQualifying
		}
		return nil, err
	}
	if len(ret.Qualifying) == 0 {
		return nil, errNoQualifying
	}
	return &ret, nil
}
