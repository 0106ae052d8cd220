package cmd

import (
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <directory>",
	Short: "根据内容重命名图片和 PDF",
	Long: `对图片执行 OCR、对 PDF 提取文本，再由大模型生成简短名称。
名称中的非法字符会被清理，与已有文件重名时追加 _1、_2 等后缀，扩展名保持不变。`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args[0], false, true)
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
