package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moyu-x/files-filter/app"
	"github.com/moyu-x/files-filter/pkg/report"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "files-filter <directory>",
	Short: "一个用于去重和按内容重命名文件的工具",
	Long: `Files Filter 是一个命令行工具，用于清理目录中的重复文件并按内容重命名。

主要功能:
- 递归遍历目标目录中的所有文件
- 基于内容哈希检测重复文件，保留首个出现的文件并删除其余副本
- 对图片执行 OCR、对 PDF 提取文本
- 调用大模型根据文本生成简短的文件名
- 清理非法字符并在重名时追加 _1、_2 等后缀

未指定 --remove-dupes 或 --rename-files 时默认两者都执行。
目标目录恰好名为 dedup 或 rename 时会被当作子命令，请写成 ./dedup 或 ./rename。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removeDupes, _ := cmd.Flags().GetBool("remove-dupes")
		renameFiles, _ := cmd.Flags().GetBool("rename-files")
		both, _ := cmd.Flags().GetBool("both")

		removeDupes, renameFiles = selectPhases(removeDupes, renameFiles, both)
		return run(cmd, args[0], removeDupes, renameFiles)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "配置文件路径 (默认查找 $HOME/.files-filter/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", "", ".env 文件路径 (默认读取当前目录的 .env)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "预览模式，不实际修改文件")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "输出调试日志")

	rootCmd.Flags().Bool("remove-dupes", false, "删除内容重复的文件")
	rootCmd.Flags().Bool("rename-files", false, "根据内容重命名图片和 PDF")
	rootCmd.Flags().Bool("both", false, "先去重再重命名（默认行为）")
}

// selectPhases --both 或两个开关都未指定时两个阶段都执行
func selectPhases(removeDupes, renameFiles, both bool) (bool, bool) {
	if both || (!removeDupes && !renameFiles) {
		return true, true
	}
	return removeDupes, renameFiles
}

// signalContext 在收到 SIGINT/SIGTERM 时取消，正在处理的文件完成后停止
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func run(cmd *cobra.Command, dir string, removeDupes, renameFiles bool) error {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	ctx, stop := signalContext()
	defer stop()

	stats, err := app.Run(ctx, &app.RunOptions{
		Directory:        dir,
		RemoveDuplicates: removeDupes,
		RenameFiles:      renameFiles,
		DryRun:           dryRun,
		Verbose:          verbose,
		ConfigFile:       configFile,
		EnvFile:          envFile,
	})
	if stats != nil {
		fmt.Fprintln(cmd.OutOrStdout(), report.Render(dir, stats, dryRun))
	}
	return err
}
