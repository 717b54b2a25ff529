package tables

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racepredict/pkg/cmd/util"
	"github.com/mpapenbr/racepredict/pkg/coefficients"
	"github.com/mpapenbr/racepredict/pkg/model"
)

func NewTablesCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "prints the effective driver and track coefficients",
		Long: `Prints the coefficient tables used by predict. The yaml output can be
edited and passed back with --tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := util.LoadTables()
			if err != nil {
				return err
			}
			switch output {
			case "yaml":
				return t.Marshal(cmd.OutOrStdout())
			case "text":
				return writeText(cmd.OutOrStdout(), t)
			default:
				return fmt.Errorf("unsupported output format %q", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, yaml)")
	return cmd
}

// writeText prints the values as they are applied, defaults included
func writeText(w io.Writer, t *coefficients.Tables) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Driver\tTier\tSkill\tConsistency\tElite\tRookie\tRookie Penalty")
	for _, id := range t.DriverIDs() {
		e := model.DriverEntry{DriverID: id}
		t.ApplyDriver(&e)
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%t\t%t\t%.2f\n",
			id, e.TeamTierBonus, e.SkillPaceBonus, e.ConsistencyVariance,
			e.ElitePasser, e.Rookie, e.RookiePacePenalty)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Track\tPass Difficulty\tLaps\tSafety Car")
	for _, name := range t.TrackNames() {
		tr, _ := t.Track(name)
		fmt.Fprintf(tw, "%s\t%.2f\t%d\t%.0f%%\n",
			tr.Name, tr.PassDifficulty, tr.LapCount, tr.SafetyCarProbability*100)
	}
	return tw.Flush()
}
