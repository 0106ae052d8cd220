package scanner

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/moyu-x/files-filter/pkg/logger"
)

type FileWalker struct {
	fs afero.Fs
}

func NewFileWalker(fs afero.Fs) *FileWalker {
	return &FileWalker{fs: fs}
}

// Walk 遍历 root 下的所有普通文件，按目录内字典序访问
// 无法访问的子路径会记录日志并跳过
func (w *FileWalker) Walk(root string, callback func(path string, info os.FileInfo) error) error {
	info, err := w.fs.Stat(root)
	if err != nil {
		return fmt.Errorf("无法访问目录: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("不是目录: %s", root)
	}

	return afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Get().Warn().Err(err).Str("path", path).Msg("访问路径出错，已跳过")
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return callback(path, info)
	})
}

// Snapshot 先枚举完整的文件列表，后续的删除/重命名只在这份快照上进行
func (w *FileWalker) Snapshot(root string) ([]string, error) {
	var files []string
	err := w.Walk(root, func(path string, info os.FileInfo) error {
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Debug().Msgf("文件统计完成，共找到 %d 个文件: %s", len(files), root)
	return files, nil
}
