package replay

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mpapenbr/raceplay/log"
	"github.com/mpapenbr/raceplay/pkg/cmd/util"
	"github.com/mpapenbr/raceplay/pkg/config"
	"github.com/mpapenbr/raceplay/pkg/model"
	"github.com/mpapenbr/raceplay/pkg/relay"
	"github.com/mpapenbr/raceplay/pkg/render"
	"github.com/mpapenbr/raceplay/pkg/replay"
	"github.com/mpapenbr/raceplay/pkg/replay/projector"
	"github.com/mpapenbr/raceplay/pkg/replay/timeline"
	"github.com/mpapenbr/raceplay/pkg/session"
)

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <sessionKey>",
		Short: "replays a cached session in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args[0])
		},
	}
	cmd.Flags().Float64VarP(&config.Speed,
		"speed",
		"s",
		1,
		"initial playback speed multiplier")
	cmd.Flags().StringVar(&config.TickInterval,
		"tick-interval",
		"100ms",
		"wall clock cadence of the replay loop")
	cmd.Flags().StringVar(&config.StartAt,
		"start-at",
		"0s",
		"offset from session start where playback begins (for example 30m)")
	cmd.Flags().StringVar(&config.CheckpointInterval,
		"checkpoint-interval",
		"1m",
		"virtual time between projector checkpoints")
	cmd.Flags().StringVar(&config.RetireAfter,
		"retire-after",
		"2m",
		"virtual time without timing events before a driver counts as retired")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"if set, snapshots are relayed to this NATS server")
	cmd.Flags().BoolVar(&config.Headless,
		"headless",
		false,
		"do not render a leaderboard, just log progress")
	return cmd
}

func parseDurationArg(value, name string, defaultVal time.Duration) time.Duration {
	ret, err := time.ParseDuration(value)
	if err != nil {
		log.Warn("invalid duration value, using default",
			log.String("flag", name),
			log.String("value", value),
			log.Duration("default", defaultVal))
		return defaultVal
	}
	return ret
}

//nolint:funlen,cyclop // mostly linear wiring
func runReplay(sessionKey string) error {
	logger, err := util.SetupLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // terminal sync errors are irrelevant

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var telemetry *config.Telemetry
	if config.EnableTelemetry {
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("could not setup telemetry", log.ErrorField(err))
		} else {
			defer telemetry.Shutdown()
		}
	}

	store := session.NewStore(config.CacheDir)
	data, err := store.Load(sessionKey)
	if err != nil {
		return err
	}
	tl, problems, err := timeline.NewBuilder().Build(data.Samples)
	if err != nil {
		return err
	}
	for _, p := range problems {
		log.Warn("malformed timing sample skipped", log.Stringer("problem", p))
	}

	tickInterval := parseDurationArg(
		config.TickInterval, "tick-interval", 100*time.Millisecond)
	startOffset := parseDurationArg(config.StartAt, "start-at", 0)
	ckInterval := parseDurationArg(
		config.CheckpointInterval, "checkpoint-interval", time.Minute)
	retireAfter := parseDurationArg(
		config.RetireAfter, "retire-after", 2*time.Minute)

	ctrl, err := replay.NewController(tl,
		replay.WithInitialSpeed(config.Speed),
		replay.WithTickInterval(tickInterval),
		replay.WithStartAt(tl.Start()+startOffset.Seconds()),
		replay.WithSessionKey(sessionKey),
		replay.WithProjectorOptions(
			projector.WithCheckpointInterval(ckInterval.Seconds()),
			projector.WithRetireAfter(retireAfter.Seconds()),
			projector.WithStartingGrid(data.Grid)))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if config.NatsURL != "" {
		natsRelay, relayErr := relay.NewNatsRelay(config.NatsURL, sessionKey)
		if relayErr != nil {
			return relayErr
		}
		defer natsRelay.Close()
		go natsRelay.Run(ctx, ctrl.Subscribe())
	}

	go ctrl.Run(ctx)

	if config.Headless {
		return runHeadless(ctx, ctrl)
	}
	return runInteractive(ctx, ctrl, data.Info)
}

// runHeadless logs progress until the session is over or ctx is done
func runHeadless(ctx context.Context, ctrl *replay.Controller) error {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := ctrl.Snapshot()
			log.Info("replay progress",
				log.Float("sessionTime", snap.SessionTime),
				log.Int("leaderLap", snap.LeaderLap))
			if ctrl.Ended() {
				log.Info("session finished")
				return nil
			}
		}
	}
}

//nolint:whitespace // can't make both editor and linter happy
func runInteractive(
	ctx context.Context, ctrl *replay.Controller, info model.SessionInfo,
) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("stdin is not a terminal (use --headless otherwise)")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState) //nolint:errcheck // nothing left to do

	renderer := render.NewRenderer(os.Stdout, info)
	renderer.Init()
	defer renderer.Restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	snapshots := ctrl.Subscribe()
	defer ctrl.CancelSubscription(snapshots)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				renderer.Render(snap, render.PlaybackInfo{
					Paused: ctrl.Paused(),
					Speed:  ctrl.Speed(),
					Ended:  ctrl.Ended(),
				})
			}
		}
	}()

	return render.RunKeyLoop(ctx, os.Stdin, ctrl)
}
