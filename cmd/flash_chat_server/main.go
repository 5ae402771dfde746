package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "flash_chat_server",
	Short: "Flash 聊天节点",
	Long:  "Flash 聊天节点：用户目录、消息日志和会话列表都由复制存储同步，机器人联系人由大模型回复。",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径，留空按 configs/ 下的候选路径查找")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
