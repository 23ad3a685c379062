package microlog

import (
	"time"

	"github.com/vidinsight-labs/microlog/config"
	"github.com/vidinsight-labs/microlog/filter"
	"github.com/vidinsight-labs/microlog/pipeline"
	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/serialize"
	"github.com/vidinsight-labs/microlog/sink"
)

// Build assembles a fully configured Logger — sinks, serializers, and
// filter chain — from a config.Config, registers it, and arms the
// garbage-collection backstop. It is the single entry point config-driven
// callers (a YAML- or JSON-configured service) are expected to use.
func Build(cfg config.Config) (*Logger, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	name := cfg.LoggerName
	if name == "" {
		name = "root"
	}

	l := New(name)
	l.SetThreshold(record.ParseSeverity(cfg.Threshold))

	if cfg.Console.Enabled {
		c := sink.NewConsole(sink.ConsoleOptions{
			Capacity:      cfg.Console.Capacity,
			Policy:        parsePolicy(cfg.Console.Policy),
			IncludeSource: cfg.Console.IncludeSource,
		})
		c.SetSerializer(serializerFor(cfg.Console.Format, name))
		l.Attach(c)
	}

	if cfg.File.Enabled {
		f, err := sink.NewRotatingFile(sink.RotatingFileOptions{
			Path:          cfg.File.Path,
			MaxBytes:      cfg.File.MaxBytes,
			MaxBackups:    cfg.File.MaxBackups,
			Compress:      cfg.File.Compress,
			Capacity:      cfg.File.Capacity,
			Policy:        parsePolicy(cfg.File.Policy),
			IncludeSource: cfg.File.IncludeSource,
		})
		if err != nil {
			return nil, err
		}
		f.SetSerializer(serializerFor(cfg.File.Format, name))
		l.Attach(f)
	}

	var chain filter.Chain
	if cfg.Redact.Enabled {
		chain = append(chain, filter.NewRedaction(nil, cfg.Redact.Patterns, cfg.Redact.Replacement))
	}
	if cfg.Sampling.Enabled {
		overrides := make(map[record.Severity]float64, len(cfg.Sampling.Overrides))
		for k, v := range cfg.Sampling.Overrides {
			overrides[record.ParseSeverity(k)] = v
		}
		s, err := filter.NewSampling(cfg.Sampling.Rate, overrides)
		if err != nil {
			return nil, err
		}
		chain = append(chain, s)
	}
	if cfg.RateLimit.Enabled {
		chain = append(chain, filter.NewRateLimit(
			cfg.RateLimit.MaxPerInterval,
			time.Duration(cfg.RateLimit.IntervalMS)*time.Millisecond,
			nil,
		))
	}
	l.SetFilters(chain)

	Register(name, l)
	armFinalizer(l)
	return l, nil
}

func serializerFor(format, service string) serialize.Serializer {
	switch format {
	case "compact":
		return serialize.Compact{Service: service}
	case "json":
		return serialize.JSON{Service: service}
	default:
		return serialize.Pretty{Service: service, UseColors: true}
	}
}

func parsePolicy(s string) pipeline.Policy {
	switch s {
	case "block":
		return pipeline.Block
	case "coalesce":
		return pipeline.Coalesce
	default:
		return pipeline.DropNewest
	}
}
