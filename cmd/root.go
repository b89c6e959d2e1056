package cmd

import (
	"fmt"
	"log"
	"os"

	"NowFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nowfm",
	Short: "NowFM broadcasts what a Last.fm user is playing in real time.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting NowFM server...")
		// server.Start now handles its own config and logging for startup.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
