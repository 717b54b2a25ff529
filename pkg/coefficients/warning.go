package coefficients

import (
	"fmt"
	"strings"
)

type Subject string

const (
	SubjectDriver     Subject = "driver"
	SubjectTrack      Subject = "track"
	SubjectQualifying Subject = "qualifying"
)

// MissingCoefficientWarning reports which defaults were applied because a
// lookup found no explicit value. It is not an error.
type MissingCoefficientWarning struct {
	Subject Subject
	Key     string
	Applied []AppliedDefault
}

type AppliedDefault struct {
	Name  string
	Value any
}

func (w *MissingCoefficientWarning) add(name string, value any) {
	w.Applied = append(w.Applied, AppliedDefault{Name: name, Value: value})
}

// Add records another applied default
func (w *MissingCoefficientWarning) Add(name string, value any) {
	w.add(name, value)
}

func (w *MissingCoefficientWarning) String() string {
	parts := make([]string, len(w.Applied))
	for i, a := range w.Applied {
		parts[i] = fmt.Sprintf("%s=%v", a.Name, a.Value)
	}
	return fmt.Sprintf("%s %q: using defaults %s", w.Subject, w.Key, strings.Join(parts, ", "))
}
