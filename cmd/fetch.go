package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"NowFM/config"
	"NowFM/core/lastfm"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "抓取一次当前播放状态",
	Long:  `调用一次Last.fm接口获取当前播放状态并打印，用于验证API凭据和目标用户。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if cfg.LastFMAPIKey == "" || cfg.LastFMUser == "" {
			fmt.Println("请先设置 LASTFM_API_KEY 和 LASTFM_USER")
			os.Exit(1)
		}

		client := lastfm.NewClient(cfg.LastFMAPIKey, cfg.LastFMAPISecret, cfg.LastFMUser)

		fmt.Printf("正在查询 %s 的播放状态...\n", cfg.LastFMUser)
		np, err := client.FetchNowPlaying(context.Background())
		if err != nil {
			log.Fatalf("查询失败: %v", err)
		}

		if np == nil {
			fmt.Println("当前没有正在播放的曲目")
			return
		}

		fmt.Printf("正在播放: %s - %s\n", np.Artist, np.Track)
		if np.Album != "" {
			fmt.Printf("专辑: %s\n", np.Album)
		}
		if np.DurationMs > 0 {
			fmt.Printf("时长: %dms\n", np.DurationMs)
		}
		if np.AlbumArt != "" {
			fmt.Printf("封面: %s\n", np.AlbumArt)
		}
		fmt.Printf("曲目ID: %s\n", np.ID)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
