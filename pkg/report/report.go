package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/moyu-x/files-filter/internal"
)

// FormatBytes 把字节数格式化为易读的形式
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func row(label string, value any) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + textStyle.Render(fmt.Sprint(value))
}

// Render 生成运行结束后的统计摘要，逐个列出失败和跳过的文件
func Render(root string, stats *internal.ProcessStats, dryRun bool) string {
	var b strings.Builder

	title := "处理完成"
	if dryRun {
		title = "处理完成（预览模式，未修改任何文件）"
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	rows := []string{
		row("目录", root),
		row("扫描文件", stats.TotalScanned),
		row("重复文件", stats.Duplicates),
		row("已删除", stats.Deleted),
		row("释放空间", FormatBytes(stats.FreedSpace)),
		row("待重命名", stats.RenameCandidates),
		row("已重命名", stats.Renamed),
		row("名称未变", stats.Unchanged),
		row("跳过", len(stats.Skipped)),
		row("失败", stats.Failed()),
		row("耗时", stats.EndTime.Sub(stats.StartTime).Round(time.Millisecond)),
	}
	b.WriteString(strings.Join(rows, "\n"))

	if len(stats.Skipped) > 0 {
		b.WriteString("\n\n" + labelStyle.Render("跳过的文件:"))
		for _, s := range stats.Skipped {
			b.WriteString("\n  " + filePathStyle.Render(s.Path) + " " + hintStyle.Render(s.Reason))
		}
	}

	if len(stats.Failures) > 0 {
		b.WriteString("\n\n" + errorStyle.Render("失败的文件:"))
		for _, f := range stats.Failures {
			b.WriteString("\n  " + filePathStyle.Render(f.Path) + " " + hintStyle.Render(fmt.Sprintf("[%s] %v", f.Phase, f.Err)))
		}
	}

	return statsBoxStyle.Render(b.String())
}
