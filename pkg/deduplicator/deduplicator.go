package deduplicator

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/hasher"
	"github.com/moyu-x/files-filter/pkg/logger"
	"github.com/moyu-x/files-filter/pkg/scanner"
)

type Options struct {
	// DryRun 只报告重复文件，不删除
	DryRun bool
	// Workers 哈希计算线程数
	Workers int
}

// Duplicate 一个被判定为重复的文件
type Duplicate struct {
	Path        string
	Original    string
	Fingerprint hasher.Fingerprint
	Size        int64
}

type Result struct {
	Scanned    int
	Unique     int
	Duplicates []Duplicate
	Deleted    int
	FreedSpace int64
	Failures   []*internal.FileError
}

type Deduplicator struct {
	fs     afero.Fs
	hasher *hasher.Hasher
	walker *scanner.FileWalker
	opts   Options
}

func NewDeduplicator(fs afero.Fs, h *hasher.Hasher, opts Options) *Deduplicator {
	return &Deduplicator{
		fs:     fs,
		hasher: h,
		walker: scanner.NewFileWalker(fs),
		opts:   opts,
	}
}

// Scan 删除 root 下内容完全相同的文件，每组只保留遍历顺序中第一个出现的文件
// 单个文件的读取或删除失败只记录，不会中断扫描
// ctx 被取消时在两个文件之间停止，返回已完成部分的结果和 ctx.Err()
func (d *Deduplicator) Scan(ctx context.Context, root string) (*Result, error) {
	files, err := d.walker.Snapshot(root)
	if err != nil {
		return nil, fmt.Errorf("扫描目录失败: %w", err)
	}

	logger.Get().Info().Msgf("开始去重，共 %d 个文件: %s", len(files), root)

	result := &Result{}

	hashes, err := d.hasher.HashAll(ctx, files, d.opts.Workers)
	if err != nil {
		if ctx.Err() != nil {
			logger.Get().Warn().Msg("已中断，未删除任何文件")
			return result, err
		}
		return nil, fmt.Errorf("创建哈希计算池失败: %w", err)
	}

	seen := make(map[hasher.Fingerprint]string, len(files))

	for i, h := range hashes {
		if err := ctx.Err(); err != nil {
			logger.Get().Warn().Msgf("已中断，已处理 %d/%d 个文件", i, len(files))
			return result, err
		}

		result.Scanned++
		progress := fmt.Sprintf("[%d/%d]", i+1, len(files))

		if h.Error != nil {
			logger.Get().Error().Err(h.Error).Msgf("%s 计算哈希失败: %s", progress, h.Path)
			result.Failures = append(result.Failures, &internal.FileError{Path: h.Path, Phase: internal.PhaseDedup, Err: h.Error})
			continue
		}

		original, exists := seen[h.Fingerprint]
		if !exists {
			seen[h.Fingerprint] = h.Path
			result.Unique++
			logger.Get().Debug().Msgf("%s 新文件: %s (哈希: %s)", progress, h.Path, h.Fingerprint.Short())
			continue
		}

		dup := Duplicate{Path: h.Path, Original: original, Fingerprint: h.Fingerprint}
		if info, err := d.fs.Stat(h.Path); err == nil {
			dup.Size = info.Size()
		}
		result.Duplicates = append(result.Duplicates, dup)

		if d.opts.DryRun {
			logger.Get().Info().Msgf("%s 发现重复: %s (与 %s 相同, 预览模式未删除)", progress, h.Path, original)
			continue
		}

		if err := d.fs.Remove(h.Path); err != nil {
			logger.Get().Error().Err(err).Msgf("%s 删除文件失败: %s", progress, h.Path)
			result.Failures = append(result.Failures, &internal.FileError{
				Path:  h.Path,
				Phase: internal.PhaseDedup,
				Err:   fmt.Errorf("%w: %w", internal.ErrDelete, err),
			})
			continue
		}

		result.Deleted++
		result.FreedSpace += dup.Size
		logger.Get().Info().Msgf("%s 发现重复: %s (与 %s 相同, 已删除)", progress, h.Path, original)
	}

	logger.Get().Info().Msgf("去重完成: 扫描 %d, 保留 %d, 删除 %d, 失败 %d",
		result.Scanned, result.Unique, result.Deleted, len(result.Failures))

	return result, nil
}
