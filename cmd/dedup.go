package cmd

import (
	"github.com/spf13/cobra"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <directory>",
	Short: "检测并删除重复文件",
	Long: `递归遍历指定目录，计算每个文件的内容哈希。
相同内容的文件只保留遍历时首个出现的，其余副本被删除。`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args[0], true, false)
	},
}

func init() {
	rootCmd.AddCommand(dedupCmd)
}
