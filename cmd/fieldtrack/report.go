package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goodtune/fieldtrack/internal/audit"
	"github.com/goodtune/fieldtrack/internal/config"
	"github.com/goodtune/fieldtrack/internal/logbook"
	"github.com/goodtune/fieldtrack/internal/rules"
)

var (
	reportVersion string
	reportMode    string
)

var reportCmd = &cobra.Command{
	Use:   "report TRAINEE MONTH",
	Short: "Compute the monthly compliance report for a trainee",
	Long: `Compute supervision compliance statistics for one trainee and month
(YYYY-MM) from the stored sessions and the configured ruleset.`,
	Example: `  fieldtrack -c config.yaml report t-100 2026-03
  fieldtrack report t-100 2026-03 --version 2022 --mode Concentrated`,
	Args: cobra.ExactArgs(2),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportVersion, "version", "", "Ruleset version (defaults to configured version)")
	reportCmd.Flags().StringVar(&reportMode, "mode", "", "Supervision mode (defaults to configured mode)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	traineeID := args[0]
	month := args[1]

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Keep report output clean
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logger := zerolog.Nop()

	version := reportVersion
	if version == "" {
		version = cfg.Rules.DefaultVersion
	}

	modeStr := reportMode
	if modeStr == "" {
		modeStr = cfg.Rules.DefaultMode
	}
	mode, err := rules.ParseMode(modeStr)
	if err != nil {
		return err
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	loader, err := rules.NewLoader(cfg.Rules.File, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize ruleset loader: %w", err)
	}

	lb := logbook.New(store, audit.New(cfg.Audit.MaxSessionHours), loader, logger)

	report, err := lb.Report(context.Background(), traineeID, month, version, mode)
	if err != nil {
		return err
	}

	printReport(report)

	return nil
}

// printReport prints the monthly compliance report with colors
func printReport(report logbook.MonthlyReport) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Printf("MONTHLY COMPLIANCE REPORT  %s / %s\n", report.TraineeID, report.Month)
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Ruleset:       %s (%s)\n", report.RulesVersion, report.RulesSource)
	if report.RulesSource != rules.SourceRequested {
		yellow.Printf("               note: requested version was unavailable, fallback applied\n")
	}
	fmt.Printf("Mode:          %s\n", report.Mode)
	fmt.Printf("Sessions:      %d\n", report.SessionCount)
	fmt.Println()

	stats := report.Stats
	fmt.Printf("Total hours:        %.2f\n", stats.TotalHours)
	fmt.Printf("Supervised hours:   %.2f\n", stats.SupervisedHours)
	fmt.Printf("Independent hours:  %.2f\n", stats.IndependentHours)
	fmt.Printf("Supervision ratio:  %.4f\n", stats.SupervisionPercent)
	fmt.Println()

	printVerdict := func(label string, ok bool) {
		fmt.Printf("%-22s", label)
		if ok {
			green.Println("COMPLIANT")
		} else {
			red.Println("NON-COMPLIANT")
		}
	}
	printVerdict("Supervision ratio:", stats.IsCompliantSupervision)
	printVerdict("Monthly minimum:", stats.IsCompliantMinHours)
	printVerdict("Monthly maximum:", stats.IsCompliantMaxHours)

	if !stats.IsCompliantSupervision {
		fmt.Println()
		yellow.Printf("Additional supervised hours needed: %.2f\n", stats.HoursNeededForRatio)
	}
	fmt.Println()
}
