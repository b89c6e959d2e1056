package cmd

import (
	"NowFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动NowFM服务器",
	Long:  `启动NowFM服务器：轮询Last.fm播放状态并通过WebSocket实时广播`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
