package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func metricsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics USER_ID",
		Short: "Compute the advanced metrics bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return printJSON(cmd.OutOrStdout(), a.Service.ComputeAdvancedMetrics(cmd.Context(), id))
		},
	}
}

func holdingsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "holdings USER_ID",
		Short: "List priced holdings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			holdings, err := a.Service.Holdings(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), holdings)
		},
	}
}

func holdCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hold USER_ID SYMBOL QTY",
		Short: "Set the quantity held of a symbol",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			qty, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[2], err)
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Store.SetPosition(cmd.Context(), id, args[1], qty); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d holds %s %s\n", id, qty, args[1])
			return nil
		},
	}
}

func dropCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop USER_ID SYMBOL",
		Short: "Remove a symbol from holdings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			removed, err := a.Store.RemovePosition(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("user %d does not hold %s", id, args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[1])
			return nil
		},
	}
}

func taxCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tax USER_ID",
		Short: "FIFO realized and unrealized gains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			report, err := a.Service.TaxReport(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"realized":          report.Realized(),
				"realizedShortTerm": report.RealizedShortTerm,
				"realizedLongTerm":  report.RealizedLongTerm,
				"unrealized":        report.Unrealized,
				"sales":             report.Sales,
				"openLots":          report.OpenLots,
			})
		},
	}
}

func chartCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "chart USER_ID",
		Short: "Render the portfolio value chart to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			img, err := a.Service.ValueChart(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, img, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(img))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "portfolio.png", "output file")
	return cmd
}
