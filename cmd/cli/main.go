package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host string
)

var rootCmd = &cobra.Command{
	Use:   "gearscout",
	Short: "A CLI to interact with the local GearScout agent",
	Long: `A command-line interface for the local GearScout scouting agent: inspect
and submit queued matches, load the event schedule and apply app updates.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the agent")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errorStyle.Render(fmt.Sprintf("Whoops. There was an error while executing your command: %s", err)))
		os.Exit(1)
	}
}

func main() {
	Execute()
}
