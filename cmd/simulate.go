package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meditrack/lifeline/simulator"
)

var (
	simBroker      string
	simTopicPrefix string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Publish a scripted event scenario to the broker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sc, err := simulator.LoadScenario(args[0])
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		return simulator.NewRunner(simBroker, simTopicPrefix).Run(ctx, sc)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simBroker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	simulateCmd.Flags().StringVar(&simTopicPrefix, "topic-prefix", "hospital/rooms", "room topic prefix")
	rootCmd.AddCommand(simulateCmd)
}
