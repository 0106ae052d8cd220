package app

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/moyu-x/files-filter/config"
	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/extractor"
	"github.com/moyu-x/files-filter/pkg/hasher"
	"github.com/moyu-x/files-filter/pkg/labeler"
	"github.com/moyu-x/files-filter/pkg/logger"
	"github.com/moyu-x/files-filter/pkg/pipeline"
)

type RunOptions struct {
	Directory        string
	RemoveDuplicates bool
	RenameFiles      bool
	DryRun           bool
	Verbose          bool
	ConfigFile       string
	EnvFile          string

	// Fs 为空时使用真实文件系统
	Fs afero.Fs
}

// Run 加载配置并执行去重/重命名
// 配置错误（例如缺少 API Key）在处理任何文件之前返回
func Run(ctx context.Context, opts *RunOptions) (*internal.ProcessStats, error) {
	if !opts.RemoveDuplicates && !opts.RenameFiles {
		return nil, fmt.Errorf("%w: 至少需要启用去重或重命名中的一项", internal.ErrConfiguration)
	}

	var envFiles []string
	if opts.EnvFile != "" {
		envFiles = append(envFiles, opts.EnvFile)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("%w: 加载 .env 失败: %w", internal.ErrConfiguration, err)
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("%w: 加载配置失败: %w", internal.ErrConfiguration, err)
	}

	logLevel := cfg.Logging.Level
	if opts.Verbose {
		logLevel = "debug"
	}
	if err := logger.Init(logLevel, cfg.Logging.File); err != nil {
		return nil, err
	}
	logger.With("run_id", uuid.NewString())

	logger.Get().Info().Msg("加载配置完成")
	logger.Get().Info().Msgf("目标目录: %s", opts.Directory)
	logger.Get().Info().Msgf("删除重复文件: %v, 重命名文件: %v", opts.RemoveDuplicates, opts.RenameFiles)
	if opts.DryRun {
		logger.Get().Info().Msg("=== 预览模式，不会实际修改文件 ===")
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	algorithm, err := hasher.ParseAlgorithm(cfg.Hasher.Algorithm)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{Hasher: hasher.New(fs, algorithm)}

	if opts.RenameFiles {
		client, err := labeler.NewClient(ctx, labeler.Config{
			Provider:     cfg.Labeler.Provider,
			Model:        cfg.Labeler.Model,
			APIKey:       cfg.Labeler.APIKey,
			BaseURL:      cfg.Labeler.BaseURL,
			PrefixLength: cfg.Labeler.PrefixLength,
			MaxTokens:    cfg.Labeler.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		if closer, ok := client.(io.Closer); ok {
			defer closer.Close()
		}

		logger.Get().Info().Msgf("名称生成服务: %s", cfg.Labeler.Provider)

		deps.Labeler = labeler.New(client, cfg.Labeler.PrefixLength)
		deps.Extractor = extractor.NewDispatcher(
			extractor.NewOCRExtractor(cfg.Extractor.TesseractPath, cfg.Extractor.Language),
			extractor.NewPDFExtractor(fs),
		)
	}

	orchestrator, err := pipeline.New(fs, pipeline.Options{
		RemoveDuplicates: opts.RemoveDuplicates,
		RenameFiles:      opts.RenameFiles,
		DryRun:           opts.DryRun,
		Workers:          cfg.Hasher.Workers,
	}, deps)
	if err != nil {
		return nil, err
	}

	return orchestrator.Run(ctx, opts.Directory)
}
