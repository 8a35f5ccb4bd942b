package config

import (
	"hls-abr/internal/abr"
)

// Strategy builds the default strategy configuration. ABR_CONFIG_FILE, when
// set, names a YAML file that replaces the preset chosen by ABR_VARIANT.
// The remaining ABR_* variables override individual values on top of either.
func Strategy() (abr.Config, error) {
	var (
		cfg abr.Config
		err error
	)
	if path := GetEnv("ABR_CONFIG_FILE", ""); path != "" {
		cfg, err = abr.LoadConfigFile(path)
	} else {
		var v abr.Variant
		if v, err = abr.ParseVariant(GetEnv("ABR_VARIANT", "")); err == nil {
			cfg, err = abr.ConfigForVariant(v)
		}
	}
	if err != nil {
		return abr.Config{}, err
	}

	cfg.Reservoir.Low = GetEnvFloat("ABR_RESERVOIR_LOW", cfg.Reservoir.Low)
	cfg.Reservoir.High = GetEnvFloat("ABR_RESERVOIR_HIGH", cfg.Reservoir.High)
	cfg.Reservoir.MinLow = GetEnvFloat("ABR_RESERVOIR_MIN_LOW", cfg.Reservoir.MinLow)
	cfg.Reservoir.MaxLow = GetEnvFloat("ABR_RESERVOIR_MAX_LOW", cfg.Reservoir.MaxLow)
	cfg.SafeStep = GetEnvFloat("ABR_SAFE_STEP", cfg.SafeStep)
	cfg.WindowSize = GetEnvInt("ABR_WINDOW_SIZE", cfg.WindowSize)
	cfg.SegmentDuration = GetEnvFloat("ABR_SEGMENT_DURATION", cfg.SegmentDuration)

	if err := cfg.Validate(); err != nil {
		return abr.Config{}, err
	}
	return cfg, nil
}
