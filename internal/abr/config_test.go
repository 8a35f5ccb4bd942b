package abr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigForVariant(t *testing.T) {
	cases := []struct {
		variant   Variant
		averaging Averaging
		override  bool
		resize    bool
	}{
		{VariantBaseline, AveragingNone, false, false},
		{VariantInstantaneous, AveragingLast, true, true},
		{VariantCumulative, AveragingCumulative, false, true},
		{VariantWindowed, AveragingWindowed, false, true},
	}
	for _, c := range cases {
		t.Run(string(c.variant), func(t *testing.T) {
			cfg, err := ConfigForVariant(c.variant)
			require.NoError(t, err)
			require.Equal(t, c.averaging, cfg.Averaging)
			require.Equal(t, c.override, cfg.UseCapacityOverride)
			require.Equal(t, c.resize, cfg.ResizeReservoir)
			require.Equal(t, DefaultReservoir(), cfg.Reservoir)
			require.NoError(t, cfg.Validate())
		})
	}

	_, err := ConfigForVariant("bola")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Instantaneous ")
	require.NoError(t, err)
	require.Equal(t, VariantInstantaneous, v)

	v, err = ParseVariant("")
	require.NoError(t, err)
	require.Equal(t, VariantBaseline, v)

	_, err = ParseVariant("nope")
	require.True(t, IsConfigError(err))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResizeReservoir = true
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Reservoir.MinLow = 40
	require.ErrorIs(t, cfg.Validate(), ErrInvalidReservoir)

	cfg, _ = ConfigForVariant(VariantWindowed)
	cfg.WindowSize = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.SegmentDuration = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Averaging = "median"
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestParseConfig(t *testing.T) {
	doc := []byte(`
variant: windowed
window_size: 4
reservoir:
  low: 10
  min_low: 5
segment_duration: 2
`)
	cfg, err := ParseConfig(doc)
	require.NoError(t, err)
	require.Equal(t, VariantWindowed, cfg.Variant)
	require.Equal(t, AveragingWindowed, cfg.Averaging)
	require.True(t, cfg.ResizeReservoir)
	require.Equal(t, 4, cfg.WindowSize)
	require.Equal(t, 10.0, cfg.Reservoir.Low)
	require.Equal(t, 5.0, cfg.Reservoir.MinLow)
	require.Equal(t, DefaultReservoirHigh, cfg.Reservoir.High)
	require.Equal(t, DefaultReservoirMaxLow, cfg.Reservoir.MaxLow)
	require.Equal(t, 2.0, cfg.SegmentDuration)
}

func TestParseConfig_invalid(t *testing.T) {
	_, err := ParseConfig([]byte("variant: [oops"))
	require.Error(t, err)

	_, err = ParseConfig([]byte("reservoir:\n  min_low: 50\n"))
	require.ErrorIs(t, err, ErrInvalidReservoir)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variant: instantaneous\nsafe_step: 500000\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, VariantInstantaneous, cfg.Variant)
	require.Equal(t, 500_000.0, cfg.SafeStep)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
