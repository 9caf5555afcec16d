// Package cmd owns the implementation details of the CLI command.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/fredbi/tvviz/internal/pkg/config"
	"github.com/fredbi/tvviz/internal/pkg/dataset"
	"github.com/fredbi/tvviz/internal/pkg/organizer"
	"github.com/fredbi/tvviz/internal/pkg/server"
	"github.com/spf13/cobra"
)

// Command holds command line flags and executes the tvviz commands.
//
// It knows how to load a configuration file in a [config.Config] and manage CLI flag configuration overrides.
//
// The main purpose of this package is to deal with io's: opening and closing files, standard input and output.
// All other invoked functionalities deal with streams.
type Command struct {
	Config     string
	Data       string
	Strict     bool
	Verbose    bool
	Quiet      bool
	Addr       string
	Grace      time.Duration
	OutputFile string
	Png        bool
	L          *slog.Logger

	cfg  *config.Config
	root *cobra.Command
}

// NewCommand builds a CLI command with registered subcommands, flags and an injected logger.
func NewCommand() *Command {
	c := &Command{
		L: slog.Default().With(slog.String("module", "main")),
	}

	c.root = c.rootCommand()
	c.root.AddCommand(
		c.serveCommand(),
		c.renderCommand(),
		c.reportCommand(),
		c.configCommand(),
	)

	return c
}

// Root exposes the underlying cobra command, e.g. to redirect its output.
func (c *Command) Root() *cobra.Command {
	return c.root
}

// Fatalf logs an error message then exits. The output is spewed on both stderr and the structured logger output.
func (c *Command) Fatalf(err error) {
	c.L.Error(err.Error())
	log.Fatalf("%v", err)
}

// Execute the CLI.
//
// If no argument is passed, command line arguments (i.e. [os.Args]) are used.
func (c *Command) Execute(ctx context.Context, args ...string) error {
	if args != nil { // passing explicit args allows for testing Execute without altering [os.Args]
		c.root.SetArgs(args)
	}

	return c.root.ExecuteContext(ctx)
}

func (c *Command) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tvviz",
		Short: "Netflix TV show data visualization",
		Long: `tvviz explores a dataset of Netflix TV shows.

It serves an interactive dashboard with four views (top producing countries,
score distribution per genre, share of productions, score against release year),
renders the same charts as a static HTML page or PNG image, and reports on the
content of the dataset.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.L = setupLogger(cmd.ErrOrStderr(), c.Verbose, c.Quiet)

			return c.prepareConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.Config, "config", "c", "", "config file (defaults apply when empty)")
	flags.StringVarP(&c.Data, "data", "d", "", "dataset source: URL, file or - for standard input (overrides config)")
	flags.BoolVar(&c.Strict, "strict", false, "fail on invalid rows instead of skipping them")
	flags.BoolVarP(&c.Verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&c.Quiet, "quiet", "q", false, "only log warnings and errors")

	return root
}

func (c *Command) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context(), cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&c.Addr, "addr", "", "listening address (overrides config, e.g. :8050)")
	flags.DurationVar(&c.Grace, "shutdown-grace", 0, "time left to in-flight requests on shutdown (overrides config)")

	return cmd
}

func (c *Command) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Report about the content of the dataset, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.report(cmd.Context(), cmd)
		},
	}
}

func (c *Command) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.dumpConfig(cmd)
		},
	}

	cmd.Flags().StringVarP(&c.OutputFile, "output", "o", "-", "file output or - for standard output")

	return cmd
}

func (c *Command) prepareConfig() error {
	var (
		cfg *config.Config
		err error
	)

	if c.Config == "" {
		cfg, err = config.LoadDefaults()
	} else {
		cfg, err = config.Load(c.Config)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// apply CLI flags overrides to YAML config
	cfg.IsStrict = c.Strict
	if c.Data != "" {
		cfg.Dataset.Source = c.Data
	}

	c.cfg = cfg

	return nil
}

func (c *Command) loadDataset(ctx context.Context, cmd *cobra.Command) (*dataset.Dataset, error) {
	data, err := dataset.New(c.cfg, dataset.WithStdin(cmd.InOrStdin())).Load(ctx, c.cfg.Dataset.Source)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	return data, nil
}

// serve runs the dashboard until the context is canceled.
func (c *Command) serve(ctx context.Context, cmd *cobra.Command) error {
	data, err := c.loadDataset(ctx, cmd)
	if err != nil {
		return err
	}

	srv, err := server.New(c.cfg, organizer.New(c.cfg, data),
		server.WithAddr(c.Addr),
		server.WithShutdownGrace(c.Grace),
	)
	if err != nil {
		return fmt.Errorf("preparing server: %w", err)
	}

	return srv.Run(ctx)
}

// report produces a report that explores the input dataset.
func (c *Command) report(ctx context.Context, cmd *cobra.Command) error {
	data, err := c.loadDataset(ctx, cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", " ")

	return enc.Encode(data.Report())
}

func (c *Command) dumpConfig(cmd *cobra.Command) error {
	w, closer, err := getWriter(cmd, c.OutputFile, "config")
	if err != nil {
		return err
	}
	defer closer()

	if err := c.cfg.EncodeYAML(w); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}

func getReader(file, kind string) (rdr *os.File, cleanup func(), err error) {
	rdr, err = os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = rdr.Close()
	}

	return rdr, cleanup, nil
}

// getWriter opens a file for writing, or the standard output of the command when file is "-".
func getWriter(cmd *cobra.Command, file, kind string) (wrt io.Writer, cleanup func(), err error) {
	if file == "-" || file == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	f, err := os.Create(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file for writing: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = f.Close()
	}

	return f, cleanup, nil
}
