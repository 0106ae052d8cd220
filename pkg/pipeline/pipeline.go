package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/classifier"
	"github.com/moyu-x/files-filter/pkg/deduplicator"
	"github.com/moyu-x/files-filter/pkg/hasher"
	"github.com/moyu-x/files-filter/pkg/logger"
	"github.com/moyu-x/files-filter/pkg/renamer"
	"github.com/moyu-x/files-filter/pkg/sanitizer"
	"github.com/moyu-x/files-filter/pkg/scanner"
)

// Extractor 从图片或 PDF 中提取文本
type Extractor interface {
	Extract(ctx context.Context, path string, kind classifier.Kind) (string, error)
}

// LabelGenerator 根据文本生成候选名称
type LabelGenerator interface {
	SuggestLabel(ctx context.Context, text string) (string, error)
}

type Options struct {
	RemoveDuplicates bool
	RenameFiles      bool
	DryRun           bool
	Workers          int
}

type Deps struct {
	Hasher    *hasher.Hasher
	Extractor Extractor
	Labeler   LabelGenerator
}

type Orchestrator struct {
	fs         afero.Fs
	opts       Options
	hasher     *hasher.Hasher
	classifier *classifier.Classifier
	extractor  Extractor
	labeler    LabelGenerator
	renamer    *renamer.Renamer
	walker     *scanner.FileWalker
	phase      internal.Phase

	// 预览模式下重复文件没有被删除，重命名阶段需要跳过它们
	pendingDuplicates map[string]bool
}

// New 创建编排器，启用重命名时 Extractor 和 Labeler 必须提供
func New(fs afero.Fs, opts Options, deps Deps) (*Orchestrator, error) {
	if opts.RenameFiles && (deps.Extractor == nil || deps.Labeler == nil) {
		return nil, fmt.Errorf("%w: 重命名需要文本提取器和名称生成器", internal.ErrConfiguration)
	}

	h := deps.Hasher
	if h == nil {
		h = hasher.New(fs, hasher.SHA256)
	}

	return &Orchestrator{
		fs:         fs,
		opts:       opts,
		hasher:     h,
		classifier: classifier.NewClassifier(fs),
		extractor:  deps.Extractor,
		labeler:    deps.Labeler,
		renamer:    renamer.NewRenamer(fs, renamer.WithDryRun(opts.DryRun)),
		walker:     scanner.NewFileWalker(fs),
		phase:      internal.PhaseIdle,
	}, nil
}

func (o *Orchestrator) Phase() internal.Phase {
	return o.phase
}

// Run 处理 root 目录
// 只有目录无法访问或 ctx 被取消时返回错误，已经处理的文件保持处理后的状态
func (o *Orchestrator) Run(ctx context.Context, root string) (*internal.ProcessStats, error) {
	stats := &internal.ProcessStats{StartTime: time.Now()}
	defer func() {
		stats.EndTime = time.Now()
	}()

	// 预览模式的占用状态只在一次运行内有效
	o.renamer = renamer.NewRenamer(o.fs, renamer.WithDryRun(o.opts.DryRun))
	o.pendingDuplicates = nil

	if o.opts.RemoveDuplicates {
		o.phase = internal.PhaseDedup
		logger.Get().Info().Msg("正在删除重复文件...")
		if err := o.dedup(ctx, root, stats); err != nil {
			return stats, err
		}
	}

	if o.opts.RenameFiles {
		o.phase = internal.PhaseRename
		logger.Get().Info().Msg("正在根据内容重命名文件...")
		if err := o.rename(ctx, root, stats); err != nil {
			return stats, err
		}
	}

	o.phase = internal.PhaseDone
	return stats, nil
}

func (o *Orchestrator) dedup(ctx context.Context, root string, stats *internal.ProcessStats) error {
	d := deduplicator.NewDeduplicator(o.fs, o.hasher, deduplicator.Options{
		DryRun:  o.opts.DryRun,
		Workers: o.opts.Workers,
	})

	result, err := d.Scan(ctx, root)
	if result == nil {
		return err
	}

	stats.TotalScanned = result.Scanned
	stats.Unique = result.Unique
	stats.Duplicates = len(result.Duplicates)
	stats.Deleted = result.Deleted
	stats.FreedSpace = result.FreedSpace
	stats.Failures = append(stats.Failures, result.Failures...)

	if o.opts.DryRun {
		o.pendingDuplicates = make(map[string]bool, len(result.Duplicates))
		for _, dup := range result.Duplicates {
			o.pendingDuplicates[dup.Path] = true
			o.renamer.Vacate(dup.Path)
		}
	}
	return err
}

func (o *Orchestrator) rename(ctx context.Context, root string, stats *internal.ProcessStats) error {
	files, err := o.walker.Snapshot(root)
	if err != nil {
		return fmt.Errorf("扫描目录失败: %w", err)
	}

	if stats.TotalScanned == 0 {
		stats.TotalScanned = len(files)
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			logger.Get().Warn().Msgf("已中断，已处理 %d/%d 个文件", i, len(files))
			return err
		}

		if o.pendingDuplicates[path] {
			continue
		}

		o.renameFile(ctx, fmt.Sprintf("[%d/%d]", i+1, len(files)), path, stats)
	}

	logger.Get().Info().Msgf("重命名完成: 候选 %d, 重命名 %d, 未变化 %d, 跳过 %d",
		stats.RenameCandidates, stats.Renamed, stats.Unchanged, len(stats.Skipped))
	return nil
}

func (o *Orchestrator) fail(stats *internal.ProcessStats, path string, err error) {
	logger.Get().Error().Err(err).Msgf("处理文件失败: %s", path)
	stats.Failures = append(stats.Failures, &internal.FileError{Path: path, Phase: internal.PhaseRename, Err: err})
}

// renameFile 类型判断 → 提取文本 → 生成名称 → 清洗 → 重命名
func (o *Orchestrator) renameFile(ctx context.Context, progress, path string, stats *internal.ProcessStats) {
	kind, err := o.classifier.Detect(path)
	if err != nil {
		o.fail(stats, path, fmt.Errorf("%w: %w", internal.ErrRead, err))
		return
	}

	if !kind.Eligible() {
		stats.Ignored++
		logger.Get().Debug().Msgf("%s 非图片或 PDF，跳过: %s", progress, path)
		return
	}
	stats.RenameCandidates++

	text, err := o.extractor.Extract(ctx, path, kind)
	if err != nil {
		o.fail(stats, path, err)
		return
	}

	if strings.TrimSpace(text) == "" {
		logger.Get().Info().Msgf("%s 未提取到文本，保留原文件名: %s", progress, path)
		stats.Skipped = append(stats.Skipped, internal.SkippedFile{Path: path, Reason: "未提取到文本"})
		return
	}

	label, err := o.labeler.SuggestLabel(ctx, text)
	if err != nil {
		o.fail(stats, path, err)
		return
	}

	name := sanitizer.Sanitize(label)

	newPath, err := o.renamer.Rename(path, name)
	if err != nil {
		o.fail(stats, path, err)
		return
	}

	if newPath == path {
		stats.Unchanged++
		logger.Get().Info().Msgf("%s 文件名未变化: %s", progress, path)
		return
	}

	stats.Renamed++
	stats.Renames = append(stats.Renames, internal.RenameRecord{From: path, To: newPath})
	logger.Get().Info().Msgf("%s 重命名: %s -> %s", progress, path, newPath)
}
