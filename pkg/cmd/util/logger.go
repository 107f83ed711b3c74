package util

import (
	"os"

	"github.com/mpapenbr/raceplay/log"
	"github.com/mpapenbr/raceplay/pkg/config"
)

// SetupLogger builds the logger from the resolved config values and
// installs it as the package default
func SetupLogger() (*log.Logger, error) {
	var logger *log.Logger
	if config.LogConfig != "" {
		fileCfg, err := log.LoadFileConfig(config.LogConfig)
		if err != nil {
			return nil, err
		}
		if logger, err = log.NewWithFileConfig(
			os.Stderr, fileCfg, config.LogFormat); err != nil {
			return nil, err
		}
		log.ResetDefault(logger)
		return logger, nil
	}
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel))
	default:
		logger = log.DevLogger(os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel))
	}
	log.ResetDefault(logger)
	return logger, nil
}

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}
