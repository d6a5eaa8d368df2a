package cmd

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/thirdweb-dev/substrate-sink/internal/handlers"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the merged handler plan of every registered module",
	Run: func(cmd *cobra.Command, args []string) {
		RunPlan(cmd, args)
	},
}

func RunPlan(cmd *cobra.Command, args []string) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(handlers.Registered().Plan()); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode plan")
	}
}
