// Package cmd holds the caelum command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/term"

	"github.com/caelumsys/caelum/config"
	"github.com/caelumsys/caelum/engine"
)

// errCommandFailed makes the process exit non-zero without printing an
// extra error line; the failure text has already been shown.
var errCommandFailed = errors.New("command failed")

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
	v       = config.New()
	tracer  *sdktrace.TracerProvider
)

var rootCmd = &cobra.Command{
	Use:   "caelum",
	Short: "Run plain-language commands",
	Long: `Caelum turns short phrases such as "say hello" or "ping example.com"
into actions. Input is matched against registered command templates,
exactly first and then by similarity, so small typos still work.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./caelum.yaml or ~/.config/caelum/config.yaml)")
	flags.Float64("threshold", config.Defaults().Threshold,
		"minimum similarity for a fuzzy match, in (0, 1]")
	flags.Bool("safe", false, "only run commands marked safe")
	flags.Bool("debug", false, "log at debug level")
	flags.Bool("trace", false, "print execution spans to stdout")

	// Bind flags to viper
	_ = v.BindPFlag("threshold", flags.Lookup("threshold"))
	_ = v.BindPFlag("safe_mode", flags.Lookup("safe"))
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile, config.WithViper(v))
	if err != nil {
		return err
	}

	level := cfg.LogLevel()
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = zerolog.DebugLevel
	}
	log.Logger = newLogger(os.Stderr, level)

	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		tp, err := newTracerProvider(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		tracer = tp
		otel.SetTracerProvider(tp)
	}
	return nil
}

// newLogger writes human readable logs to a terminal and JSON otherwise.
func newLogger(f *os.File, level zerolog.Level) zerolog.Logger {
	var out io.Writer = f
	if term.IsTerminal(int(f.Fd())) {
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}
	res := resource.NewSchemaless(attribute.String("service.name", "caelum"))
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	), nil
}

func openEngine() (*engine.Engine, error) {
	e, err := engine.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("starting engine: %w", err)
	}
	return e, nil
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := tracer.Shutdown(ctx); serr != nil {
			log.Warn().Err(serr).Msg("failed to flush traces")
		}
	}
	if err != nil && !errors.Is(err, errCommandFailed) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(ver string) {
	version = ver
	rootCmd.Version = ver
}
