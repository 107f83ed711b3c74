package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	CacheDir           string  // directory holding imported session files
	LogLevel           string  // sets the log level (zap log level values)
	LogFormat          string  // text vs json
	LogConfig          string  // path to log config file
	EnableTelemetry    bool    // enable telemetry
	TelemetryEndpoint  string  // endpoint for telemetry ("stdout" for local exporter)
	Speed              float64 // initial playback speed multiplier
	TickInterval       string  // wall clock cadence of the replay loop
	StartAt            string  // session time offset where playback starts
	CheckpointInterval string  // virtual time between projector checkpoints (0 disables)
	RetireAfter        string  // virtual time without events before a driver counts as retired
	NatsURL            string  // if set, snapshots are relayed to this NATS server
	Headless           bool    // do not render, just log progress (used with NATS relay)
)
