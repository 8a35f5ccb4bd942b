package abr

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Variant names a preset strategy configuration.
type Variant string

const (
	VariantBaseline      Variant = "baseline"
	VariantInstantaneous Variant = "instantaneous"
	VariantCumulative    Variant = "cumulative"
	VariantWindowed      Variant = "windowed"
)

// Averaging selects how throughput samples become a capacity estimate.
type Averaging string

const (
	AveragingNone       Averaging = "none"
	AveragingLast       Averaging = "last"
	AveragingCumulative Averaging = "cumulative"
	AveragingWindowed   Averaging = "windowed"
)

const (
	DefaultReservoirLow    = 20.0
	DefaultReservoirHigh   = 54.0
	DefaultReservoirMinLow = 2.0
	DefaultReservoirMaxLow = 35.0
	DefaultSafeStep        = 2.0
	DefaultWindowSize      = 10
	DefaultSegmentDuration = 1.0
)

// Config parameterizes one strategy instance.
type Config struct {
	Variant Variant `yaml:"variant"`

	// UseCapacityOverride permits a jump to the interpolated index whenever
	// capacity >= SafeStep * (prior+1), bypassing hysteresis.
	UseCapacityOverride bool    `yaml:"use_capacity_override"`
	SafeStep            float64 `yaml:"safe_step"`

	Averaging  Averaging `yaml:"averaging"`
	WindowSize int       `yaml:"window_size"`

	// ResizeReservoir enables the low reservoir feedback loop.
	ResizeReservoir bool            `yaml:"resize_reservoir"`
	Reservoir       ReservoirBounds `yaml:"reservoir"`

	// SegmentDuration is the nominal media duration of one segment in seconds.
	// It converts a representation bitrate into its average segment size.
	SegmentDuration float64 `yaml:"segment_duration"`
}

// DefaultReservoir returns the reservoir bounds every preset starts from.
func DefaultReservoir() ReservoirBounds {
	return ReservoirBounds{
		Low:    DefaultReservoirLow,
		High:   DefaultReservoirHigh,
		MinLow: DefaultReservoirMinLow,
		MaxLow: DefaultReservoirMaxLow,
	}
}

// DefaultConfig returns the baseline preset.
func DefaultConfig() Config {
	cfg, _ := ConfigForVariant(VariantBaseline)
	return cfg
}

// ConfigForVariant returns the preset for v.
func ConfigForVariant(v Variant) (Config, error) {
	cfg := Config{
		Variant:         v,
		SafeStep:        DefaultSafeStep,
		WindowSize:      DefaultWindowSize,
		Reservoir:       DefaultReservoir(),
		SegmentDuration: DefaultSegmentDuration,
	}
	switch v {
	case VariantBaseline:
		cfg.Averaging = AveragingNone
	case VariantInstantaneous:
		cfg.Averaging = AveragingLast
		cfg.UseCapacityOverride = true
		cfg.ResizeReservoir = true
	case VariantCumulative:
		cfg.Averaging = AveragingCumulative
		cfg.ResizeReservoir = true
	case VariantWindowed:
		cfg.Averaging = AveragingWindowed
		cfg.ResizeReservoir = true
	default:
		return Config{}, configErrorf(ErrInvalidConfig, "unknown variant %q", v)
	}
	return cfg, nil
}

// ParseVariant converts a case-insensitive name into a Variant.
// Empty input selects the baseline.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantBaseline, nil
	case VariantBaseline, VariantInstantaneous, VariantCumulative, VariantWindowed:
		return v, nil
	default:
		return "", configErrorf(ErrInvalidConfig, "unknown variant %q", s)
	}
}

// Validate checks the configuration for setup errors.
func (c Config) Validate() error {
	if err := c.Reservoir.Validate(); err != nil {
		return err
	}
	switch c.Averaging {
	case AveragingNone, AveragingLast, AveragingCumulative:
	case AveragingWindowed:
		if c.WindowSize <= 0 {
			return configErrorf(ErrInvalidConfig, "window_size must be positive, got %d", c.WindowSize)
		}
	default:
		return configErrorf(ErrInvalidConfig, "unknown averaging %q", c.Averaging)
	}
	if c.Averaging == AveragingNone && (c.ResizeReservoir || c.UseCapacityOverride) {
		return configErrorf(ErrInvalidConfig, "averaging %q provides no capacity estimate", c.Averaging)
	}
	if c.UseCapacityOverride && !isFinite(c.SafeStep) {
		return configErrorf(ErrInvalidConfig, "safe_step must be finite")
	}
	if !isFinite(c.SegmentDuration) || c.SegmentDuration <= 0 {
		return configErrorf(ErrInvalidConfig, "segment_duration must be positive, got %v", c.SegmentDuration)
	}
	return nil
}

// LoadConfigFile reads a YAML strategy config. The file's variant selects the
// preset, and any other keys present override it.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read abr config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfigFile for an in-memory document.
func ParseConfig(data []byte) (Config, error) {
	var head struct {
		Variant string `yaml:"variant"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, fmt.Errorf("decode abr config: %w", err)
	}
	v, err := ParseVariant(head.Variant)
	if err != nil {
		return Config{}, err
	}
	cfg, err := ConfigForVariant(v)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode abr config: %w", err)
	}
	cfg.Variant = v
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
