package check

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/raceplay/pkg/cmd/util"
	"github.com/mpapenbr/raceplay/pkg/config"
	"github.com/mpapenbr/raceplay/pkg/render"
	"github.com/mpapenbr/raceplay/pkg/replay/timeline"
	"github.com/mpapenbr/raceplay/pkg/session"
)

var showProblems bool

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <sessionKey>",
		Short: "validates a cached session and prints timeline statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkSession(args[0])
		},
	}
	cmd.Flags().BoolVar(&showProblems,
		"show-problems",
		false,
		"print each skipped timing sample")
	return cmd
}

func checkSession(sessionKey string) error {
	logger, err := util.SetupLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // terminal sync errors are irrelevant

	store := session.NewStore(config.CacheDir)
	data, err := store.Load(sessionKey)
	if err != nil {
		return err
	}
	tl, problems, err := timeline.NewBuilder().Build(data.Samples)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d - %s\n", data.Info.Series, data.Info.Year, data.Info.Name)
	fmt.Printf("samples:  %d\n", len(data.Samples))
	fmt.Printf("events:   %d\n", tl.Len())
	fmt.Printf("drivers:  %d\n", len(tl.Drivers()))
	fmt.Printf("laps:     %d\n", tl.TotalLaps())
	fmt.Printf("range:    %s - %s\n",
		render.FormatSessionTime(tl.Start()), render.FormatSessionTime(tl.End()))
	fmt.Printf("problems: %d\n", len(problems))
	if showProblems {
		for _, p := range problems {
			fmt.Printf("  %s\n", p.String())
		}
	}
	counts := map[timeline.Kind]int{}
	for _, ev := range tl.Events() {
		counts[ev.Kind]++
	}
	for _, kind := range []timeline.Kind{
		timeline.KindPitStop, timeline.KindTyreChange, timeline.KindSectorRecorded,
		timeline.KindLapCompleted, timeline.KindPositionChange,
	} {
		fmt.Printf("  %-16s %d\n", kind.String(), counts[kind])
	}
	return nil
}
