// Package cli wires the pipeline into the topicseg command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/topicseg/config"
	"github.com/maastricht-university/topicseg/orchestrator"
	"github.com/maastricht-university/topicseg/output"
)

type app struct {
	configPath string
	logLevel   string
	logFormat  string
	format     string

	conf *cfg.Root
	log  *logrus.Logger
	out  io.Writer
}

// NewRootCommand builds the command tree writing results to out and logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, log: logrus.New()}
	a.log.SetOutput(errOut)

	root := &cobra.Command{
		Use:           "topicseg",
		Short:         "Split caption transcripts into labeled topic sections",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default config/$CONFIG_ENV/config.yaml or ./config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides pipeline.log_level)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json (overrides pipeline.log_format)")
	pf.StringVarP(&a.format, "output", "o", "json", "output format: json, yaml or markdown")

	root.AddCommand(
		a.cleanCmd(),
		a.segmentCmd(),
		a.fetchCmd(),
		a.glossCmd(),
		a.processCmd(),
		a.serveCmd(),
		configCmd(),
	)
	return root
}

// Execute runs the command line until done or interrupted.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Annotations["skip-config"] == "true" {
		return nil
	}
	c, err := cfg.Load(a.configPath)
	if err != nil {
		return err
	}
	a.conf = c

	level := c.Pipeline.LogLvl
	if a.logLevel != "" {
		level = a.logLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.log.SetLevel(lvl)

	format := c.Pipeline.LogFormat
	if a.logFormat != "" {
		format = a.logFormat
	}
	switch format {
	case "json":
		a.log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	_, err = output.ParseFormat(a.format)
	return err
}

func (a *app) pipeline() (*orchestrator.Pipeline, error) {
	return orchestrator.NewPipeline(a.conf, a.log)
}

func (a *app) emit(v any) error {
	f, err := output.ParseFormat(a.format)
	if err != nil {
		return err
	}
	return output.Encode(a.out, f, v)
}
