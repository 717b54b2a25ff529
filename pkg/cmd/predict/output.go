package predict

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/gofrs/uuid/v5"

	predictsvc "github.com/mpapenbr/racepredict/pkg/predict"
	"github.com/mpapenbr/racepredict/pkg/simulation"
)

type jsonOutput struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	*simulation.Result
	ByPodium      []simulation.DriverOutcome `json:"byPodium"`
	ExpectedOrder []simulation.Projection    `json:"expectedOrder"`
	Warnings      []string                   `json:"warnings,omitempty"`
}

func writeJSON(w io.Writer, p *predictsvc.Prediction) error {
	out := jsonOutput{
		ID:            p.ID,
		CreatedAt:     p.CreatedAt,
		Result:        p.Result,
		ByPodium:      p.Result.ByPodium(),
		ExpectedOrder: p.Expected,
	}
	for _, warning := range p.Warnings {
		out.Warnings = append(out.Warnings, warning.String())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeText(w io.Writer, p *predictsvc.Prediction) error {
	res := p.Result
	fmt.Fprintf(w, "Track:  %s (pass difficulty %.2f, %d laps, safety car %.0f%%)\n",
		res.Track.Name, res.Track.PassDifficulty, res.Track.LapCount,
		res.Track.SafetyCarProbability*100)
	fmt.Fprintf(w, "Trials: %d (seed %d, safety cars %d, pole time %.3fs)\n\n",
		res.Trials, res.Seed, res.SafetyCars, res.PoleTime)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Rank\tDriver\tGrid\tGap\tWin\tPodium\tAvg Finish\tPace\tRace Time")
	for i, o := range res.Outcomes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.3f\t%s\t%s\t%.2f\t%.3f\t%s\n",
			i+1, o.DriverID, o.GridPosition, o.QualifyingGap,
			o.WinPercent(), o.PodiumPercent(), o.AverageFinish,
			o.ExpectedPace, raceTime(o.ExpectedRaceTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	winner := res.Winner()
	fmt.Fprintf(w, "\nPredicted winner: %s (%s)\n", winner.DriverID, winner.WinPercent())

	fmt.Fprintln(w, "\nBy podium probability:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Pos\tDriver\tPodium\tWin")
	for i, o := range res.ByPodium() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, o.DriverID, o.PodiumPercent(), o.WinPercent())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(p.Expected) > 0 {
		fmt.Fprintln(w, "\nExpected order without noise and safety car:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Pos\tDriver\tGrid\tPace\tRace Time")
		for i, pr := range p.Expected {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%.3f\t%s\n",
				i+1, pr.DriverID, pr.GridPosition, pr.Pace, raceTime(pr.RaceTime))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(p.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range p.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
	_, err := fmt.Fprintf(w, "\nPrediction %s\n", p.ID)
	return err
}

func raceTime(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(100 * time.Millisecond).String()
}
