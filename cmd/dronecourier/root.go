package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dronecourier",
	Short: "Autonomous delivery-drone mission runner",
	Long:  "dronecourier executes delivery missions as a phase state machine supervised by a continuous failsafe loop.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Optional .env for endpoint and table overrides.
	_ = godotenv.Load()
	rootCmd.AddCommand(flyCmd)
}
