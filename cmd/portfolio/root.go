package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"portfolioBot/internal/app"
	"portfolioBot/internal/config"
	"portfolioBot/internal/logger"
)

type rootOptions struct {
	dbPath      string
	priceSource string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Portfolio metrics, holdings and tax reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite path (overrides DB_PATH)")
	root.PersistentFlags().StringVar(&opts.priceSource, "prices", "", "price source: yahoo or mock (overrides PRICE_SOURCE)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		metricsCmd(opts),
		holdingsCmd(opts),
		holdCmd(opts),
		dropCmd(opts),
		taxCmd(opts),
		chartCmd(opts),
	)
	return root
}

// open loads configuration, applies flag overrides and wires the app.
func (o *rootOptions) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.priceSource != "" {
		cfg.PriceSource = o.priceSource
	}

	lg := zerolog.Nop()
	if o.verbose {
		lg = logger.NewWithOutput(logger.Config{Level: cfg.LogLevel, Pretty: true}, cmd.ErrOrStderr())
	}
	return app.New(cmd.Context(), cfg, lg)
}

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
