package config

import (
	"time"

	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	switch cfg.Build.CacheCompression {
	case CompressionZstd, CompressionLZ4, CompressionNone:
	default:
		return errors.ValidationError("unsupported cache compression").
			WithContext("cache_compression", string(cfg.Build.CacheCompression)).
			Build()
	}

	if cfg.Watch.Port < 0 || cfg.Watch.Port > 65535 {
		return errors.ValidationError("watch port out of range").
			WithContext("port", cfg.Watch.Port).
			Build()
	}

	durations := map[string]string{
		"watch.debounce":           cfg.Watch.Debounce,
		"watch.max_delay":          cfg.Watch.MaxDelay,
		"watch.full_rebuild_every": cfg.Watch.FullRebuildEvery,
	}
	for field, raw := range durations {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid duration").
				WithContext("field", field).
				Fatal().
				Build()
		}
		if d < 0 {
			return errors.ValidationError("duration must not be negative").
				WithContext("field", field).
				Build()
		}
	}
	if cfg.DebounceDuration() > cfg.MaxDelayDuration() {
		return errors.ValidationError("watch.debounce must not exceed watch.max_delay").Build()
	}

	if cfg.Build.ContentDir == cfg.Build.OutputDir {
		return errors.ValidationError("content_dir and output_dir must differ").Build()
	}
	return nil
}
