package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"moul.io/zapfilter"
)

// FileConfig describes the content of an optional log configuration file.
// Filters use the zapfilter rule syntax and are matched against named
// loggers, for example "debug:projector*,clock* info:*"
type FileConfig struct {
	DefaultLevel string   `yaml:"defaultLevel"`
	Filters      []string `yaml:"filters"`
}

func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ret := &FileConfig{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("could not parse log config %s: %w", path, err)
	}
	return ret, nil
}

// NewWithFileConfig creates a Logger honoring the filter rules of cfg.
// format selects the encoder ("json" or anything else for console)
//
//nolint:whitespace // can't make both editor and linter happy
func NewWithFileConfig(
	out io.Writer, cfg *FileConfig, format string, opts ...Option,
) (*Logger, error) {
	level := InfoLevel
	if cfg.DefaultLevel != "" {
		var err error
		if level, err = ParseLevel(cfg.DefaultLevel); err != nil {
			return nil, err
		}
	}
	var enc zapcore.Encoder
	if format == "json" {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	} else {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	if len(cfg.Filters) > 0 {
		rules, err := zapfilter.ParseRules(strings.Join(cfg.Filters, " "))
		if err != nil {
			return nil, fmt.Errorf("invalid log filter rules: %w", err)
		}
		core = zapfilter.NewFilteringCore(core, rules)
	}
	return fromCore(core, level, opts...), nil
}
