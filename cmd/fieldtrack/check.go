package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goodtune/fieldtrack/internal/audit"
	"github.com/goodtune/fieldtrack/internal/config"
	"github.com/goodtune/fieldtrack/internal/fieldwork"
)

var (
	checkTrainee     string
	checkDate        string
	checkStart       string
	checkEnd         string
	checkDuration    float64
	checkActivity    string
	checkSupervision string
	checkSupervisor  string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a session would pass the save-time audit",
	Long: `Check what the save-time auditor would decide for a candidate session
against the trainee's stored history, without saving anything.`,
	Example: `  fieldtrack -c config.yaml check --trainee t-100 --date 2026-03-05 --start 09:00 --end 12:00 --duration 3
  fieldtrack check --trainee t-100 --date 2026-03-05 --start 08:00 --end 21:30 --duration 13.5`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkTrainee, "trainee", "", "Trainee ID (required)")
	checkCmd.Flags().StringVar(&checkDate, "date", "", "Session date, YYYY-MM-DD (required)")
	checkCmd.Flags().StringVar(&checkStart, "start", "", "Start time, HH:MM (required)")
	checkCmd.Flags().StringVar(&checkEnd, "end", "", "End time, HH:MM (required)")
	checkCmd.Flags().Float64Var(&checkDuration, "duration", 0, "Duration in hours (required)")
	checkCmd.Flags().StringVar(&checkActivity, "activity", "Unrestricted", "Activity type (Restricted or Unrestricted)")
	checkCmd.Flags().StringVar(&checkSupervision, "supervision", "None", "Supervision type (None, Individual, Group)")
	checkCmd.Flags().StringVar(&checkSupervisor, "supervisor", "", "Supervisor name")
	checkCmd.MarkFlagRequired("trainee")
	checkCmd.MarkFlagRequired("date")
	checkCmd.MarkFlagRequired("start")
	checkCmd.MarkFlagRequired("end")
	checkCmd.MarkFlagRequired("duration")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	start, err := fieldwork.ParseTimeOfDay(checkStart)
	if err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}
	end, err := fieldwork.ParseTimeOfDay(checkEnd)
	if err != nil {
		return fmt.Errorf("invalid end time: %w", err)
	}
	supervision, err := fieldwork.NormalizeSupervision(checkSupervision)
	if err != nil {
		return err
	}
	activity, err := fieldwork.ParseActivity(checkActivity)
	if err != nil {
		return err
	}

	candidate := fieldwork.SessionRecord{
		TraineeID:       checkTrainee,
		Date:            checkDate,
		StartTime:       start,
		EndTime:         end,
		DurationHours:   checkDuration,
		ActivityType:    activity,
		SupervisionType: supervision,
		Supervisor:      checkSupervisor,
	}
	if err := candidate.Validate(); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Keep check output clean
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)

	// Load the same-day history the auditor would see
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	history, err := store.Sessions().ListByDate(context.Background(), checkTrainee, checkDate)
	if err != nil {
		return fmt.Errorf("failed to load same-day history: %w", err)
	}

	auditor := audit.New(cfg.Audit.MaxSessionHours)
	safe, violations := auditor.CheckSaveSafety(candidate, history)

	printCheckResult(candidate, len(history), safe, violations)

	return nil
}

// printCheckResult prints the audit verdict with colors
func printCheckResult(candidate fieldwork.SessionRecord, historyCount int, safe bool, violations []string) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("SAVE-TIME AUDIT CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Trainee:    %s\n", candidate.TraineeID)
	fmt.Printf("Date:       %s\n", candidate.Date)
	fmt.Printf("Interval:   %s - %s\n", candidate.StartTime, candidate.EndTime)
	fmt.Printf("Duration:   %.2fh\n", candidate.DurationHours)
	fmt.Printf("History:    %d session(s) on this date\n", historyCount)
	fmt.Println()

	cyan.Print("Verdict:    ")
	if safe {
		green.Println("SAFE TO SAVE")
		fmt.Println("            → No duration or overlap violations found")
	} else {
		red.Println("REJECTED")
		for _, v := range violations {
			red.Printf("            → %s\n", v)
		}
	}
	fmt.Println()
}
