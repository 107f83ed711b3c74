package sessions

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/raceplay/log"
	"github.com/mpapenbr/raceplay/pkg/cmd/util"
	"github.com/mpapenbr/raceplay/pkg/config"
	"github.com/mpapenbr/raceplay/pkg/model"
	"github.com/mpapenbr/raceplay/pkg/session"
)

var watch bool

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "lists the sessions in the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions()
		},
	}
	cmd.Flags().BoolVarP(&watch,
		"watch",
		"w",
		false,
		"keep running and report sessions added to the cache")
	return cmd
}

func listSessions() error {
	logger, err := util.SetupLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // terminal sync errors are irrelevant

	store := session.NewStore(config.CacheDir)
	infos, err := store.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Printf("no sessions found in %s\n", config.CacheDir)
	} else {
		printSessions(infos)
	}
	if !watch {
		return nil
	}
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Info("watching cache directory", log.String("dir", config.CacheDir))
	return store.Watch(ctx, func(info model.SessionInfo) {
		fmt.Printf("%s: %s %d - %s (%d laps)\n",
			info.Key, info.Series, info.Year, info.Name, info.TotalLaps)
	})
}

func printSessions(infos []model.SessionInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSERIES\tYEAR\tNAME\tLAPS\tIMPORTED")
	for i := range infos {
		info := &infos[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			info.Key, info.Series, info.Year, info.Name, info.TotalLaps,
			info.Imported.Format("2006-01-02 15:04"))
	}
	w.Flush() //nolint:errcheck,gosec // best effort output
}
