// Package main provides the theseus firmware entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"theseus/cli"
	"theseus/logger"
)

var (
	// Global flags
	provider string
	drivers  string
	maxIter  int
	logLevel string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "theseus",
		Short: "Natural-language robot car firmware",
		Long: `Firmware for a WiFi robot car driven by natural-language commands.

Commands arrive over MQTT, a reasoning service plans bounded batches of
actions, and motor and sonar drivers carry them out. A simulated car
stands in for the real hardware during development.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Setup(logLevel, verbose)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().StringVar(&drivers, "drivers", "", "Driver set: sim or gpio (overrides ROBOT_DRIVERS)")
	rootCmd.PersistentFlags().IntVarP(&maxIter, "max-iter", "m", 0, "Maximum planning iterations per mission (overrides PLANNER_MAX_ITERATIONS)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Pretty console logging and status echo")

	// Add commands
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(driveCmd())
	rootCmd.AddCommand(actionsCmd())
	rootCmd.AddCommand(missionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider: provider,
		Drivers:  drivers,
		MaxIter:  maxIter,
		Verbose:  verbose,
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the broker and serve missions",
		Long: `Start the firmware daemon: connect to the MQTT broker, listen for
natural-language commands on the command topic, and run each as a bounded
planning mission. Status updates stream to the status topic and, when
WEBHOOK_URL is set, to the webhook endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(context.Background(), options())
		},
	}
}

func driveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drive [objective]",
		Short: "Run a single mission from the command line",
		Long: `Run one natural-language objective without a broker connection,
narrating planning and execution to stdout. Useful for testing prompts
and drivers on the bench.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Drive(context.Background(), args[0], options())
		},
	}
}

func actionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the actions the planner may invoke",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Actions(options())
		},
	}
}

func missionsCmd() *cobra.Command {
	var dbPath string
	var limit int

	defaultDB := os.Getenv("MISSION_DB")
	if defaultDB == "" {
		defaultDB = "theseus.db"
	}

	cmd := &cobra.Command{
		Use:   "missions",
		Short: "List recorded missions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Missions(context.Background(), dbPath, limit, options())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", defaultDB, "Mission log database path")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum missions to list (0 for all)")

	return cmd
}
