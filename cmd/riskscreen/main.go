package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/complyqa/riskscreen-go/core"
)

var rootCmd = &cobra.Command{
	Use:   "riskscreen",
	Short: "File risk-screening and compliance classification",
	Long: `riskscreen walks a set of directories, classifies every eligible file
by risk level, compliance framework mentions, security and privacy
concerns, and writes a single timestamped JSON screening report.

The process exits 0 only when the scanned tree is approved for
production.`,
}

var (
	scanBase    string
	scanProfile string
	scanOutDir  string
	scanFormat  string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a screening pass and write the report artifact",
	Run: func(cmd *cobra.Command, args []string) {
		profile := core.DefaultProfile()
		if scanProfile != "" {
			loaded, err := core.LoadProfile(scanProfile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			profile = loaded
		}

		service, err := core.NewScreeningService(scanBase, profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		service.SetOutputDir(scanOutDir)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report := service.Run(ctx)

		if scanFormat == "json" {
			if err := printJSON(report); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		}

		if ctx.Err() != nil || !report.ProductionReadiness.ApprovedForProduction {
			os.Exit(1)
		}
	},
}

var (
	reportFrom   string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-render a saved screening report",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := core.LoadReport(reportFrom)
		if err != nil {
			return err
		}

		switch reportFormat {
		case "json":
			return printJSON(report)
		case "summary":
			service, err := core.NewScreeningService(".", nil)
			if err != nil {
				return err
			}
			service.PrintSummary(report)
			return nil
		default:
			return fmt.Errorf("invalid format: %s", reportFormat)
		}
	},
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

func init() {
	scanCmd.Flags().StringVar(&scanBase, "base", ".", "Base path containing the directories to scan")
	scanCmd.Flags().StringVar(&scanProfile, "profile", "", "Path to a YAML scan profile (defaults built in)")
	scanCmd.Flags().StringVar(&scanOutDir, "out-dir", ".", "Directory the report artifact is written into")
	scanCmd.Flags().StringVar(&scanFormat, "format", "summary", "Output format: summary|json")

	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Path to a saved screening report")
	reportCmd.Flags().StringVar(&reportFormat, "format", "summary", "Output format: summary|json")
	reportCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
