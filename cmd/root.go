// Package cmd is the fprbridge command-line surface.
package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	fprbridge "github.com/sfu-hiaccel/fprbridge"
	"github.com/sfu-hiaccel/fprbridge/config"
	"github.com/sfu-hiaccel/fprbridge/dataflow"
	"github.com/sfu-hiaccel/fprbridge/device"
	"github.com/sfu-hiaccel/fprbridge/latency"
)

var (
	configPath string
	outPath    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "fprbridge",
	Short: "Floorplan, route, and latency-balance a dataflow compiler design",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the floorplan/route/balance pipeline over a configuration document",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run())
	},
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "path to the input configuration document (required)")
	runCmd.Flags().StringVar(&outPath, "out", "", "path to write the annotated output configuration (required)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI and exits the process with cobra's own status on a
// usage/parse error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run performs one fprbridge invocation and returns the process exit code:
// 0 on SUCCEED, 1 on FAILED, 2 on a fatal error.
func run() int {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("fprbridge: invalid log level %q", logLevel)
	}
	logrus.SetLevel(level)

	if configPath == "" || outPath == "" {
		logrus.Error("fprbridge: --config and --out are both required")
		return 2
	}

	in, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Error("fprbridge: loading configuration")
		return 2
	}

	out, err := fprbridge.Compile(context.Background(), in)
	if err != nil {
		logrus.WithError(err).WithField("fatal_category", fatalCategory(err)).Error("fprbridge: compile failed")
		return 2
	}

	if err := config.Write(outPath, out); err != nil {
		logrus.WithError(err).Error("fprbridge: writing output configuration")
		return 2
	}

	if out.FloorplanStatus == config.StatusFailed {
		return 1
	}
	return 0
}

// fatalCategory labels which of the three documented fatal sentinels err
// wraps, for diagnostics; Compile has already folded the two non-fatal
// failure modes into OutputConfig.FloorplanStatus before returning here.
func fatalCategory(err error) string {
	switch {
	case errors.Is(err, device.ErrUnsupportedDevice):
		return "UnsupportedDevice"
	case errors.Is(err, dataflow.ErrInvalidConfig):
		return "InvalidConfig"
	case errors.Is(err, latency.ErrCyclicDataflow):
		return "CyclicDataflow"
	default:
		return "unknown"
	}
}
