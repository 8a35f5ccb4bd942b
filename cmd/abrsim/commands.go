package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"hls-abr/internal/abr"
	"hls-abr/internal/platform/logger"
	"hls-abr/internal/simulate"
)

func runSimulation(c *cli.Context) error {
	cfg, err := strategyConfig(c)
	if err != nil {
		return err
	}
	reps := ladderFromBitrates(c.Int64Slice("ladder"))

	res, err := simulate.Run(c.Context, cfg, reps, c.Float64Slice("trace"), simulate.Params{
		Segments:  c.Int("segments"),
		MaxBuffer: c.Float64("max-buffer"),
		Logger:    logger.NewWithWriter(c.App.ErrWriter, c.String("log-level"), "text"),
	})
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(c.App.Writer)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{
		"Segment",
		"Buffer",
		"Quality",
		"Bitrate",
		"Link",
		"Download",
		"Estimate",
		"Low Reservoir",
		"Stall",
	})
	for _, s := range res.Steps {
		table.Append([]string{
			strconv.Itoa(s.Segment),
			fmt.Sprintf("%.2fs", s.Buffer),
			strconv.Itoa(s.Index),
			humanize.SI(float64(s.Bitrate), "bps"),
			humanize.SI(s.Capacity, "bps"),
			s.Download.String(),
			humanize.SI(s.Estimate, "bps"),
			fmt.Sprintf("%.2fs", s.ReservoirLow),
			fmt.Sprintf("%.2fs", s.Stall),
		})
	}
	table.Render()

	fmt.Fprintf(c.App.Writer, "\nvariant %s: average %s, %d switches, startup %.2fs, %d rebuffers (%.2fs), %d anomalies\n",
		cfg.Variant,
		humanize.SI(res.AverageBitrate, "bps"),
		res.Switches,
		res.StartupDelay,
		res.Rebuffers,
		res.RebufferTime,
		anomalyCount(res.Telemetry),
	)
	return nil
}

func listVariants(c *cli.Context) error {
	table := tablewriter.NewWriter(c.App.Writer)
	table.SetHeader([]string{"Variant", "Averaging", "Capacity Override", "Resize Reservoir"})
	for _, v := range []abr.Variant{
		abr.VariantBaseline,
		abr.VariantInstantaneous,
		abr.VariantCumulative,
		abr.VariantWindowed,
	} {
		cfg, err := abr.ConfigForVariant(v)
		if err != nil {
			return err
		}
		table.Append([]string{
			string(v),
			string(cfg.Averaging),
			strconv.FormatBool(cfg.UseCapacityOverride),
			strconv.FormatBool(cfg.ResizeReservoir),
		})
	}
	table.Render()
	return nil
}

func strategyConfig(c *cli.Context) (abr.Config, error) {
	var cfg abr.Config
	if path := c.String("config"); path != "" {
		loaded, err := abr.LoadConfigFile(path)
		if err != nil {
			return abr.Config{}, err
		}
		cfg = loaded
	} else {
		v, err := abr.ParseVariant(c.String("variant"))
		if err != nil {
			return abr.Config{}, err
		}
		if cfg, err = abr.ConfigForVariant(v); err != nil {
			return abr.Config{}, err
		}
	}
	if c.IsSet("segment-duration") {
		cfg.SegmentDuration = c.Float64("segment-duration")
	}
	return cfg, cfg.Validate()
}

func ladderFromBitrates(bitrates []int64) []abr.Representation {
	reps := make([]abr.Representation, 0, len(bitrates))
	for _, b := range bitrates {
		reps = append(reps, abr.Representation{
			ID:      humanize.SI(float64(b), "bps"),
			Bitrate: b,
		})
	}
	return reps
}

func anomalyCount(t abr.Telemetry) int {
	n := 0
	for _, c := range t.Anomalies {
		n += c
	}
	return n
}
