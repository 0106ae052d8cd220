package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/logger"
)

const DefaultTesseractPath = "tesseract"

// OCRExtractor 调用 tesseract 命令行识别图片中的文字
type OCRExtractor struct {
	Binary   string
	Language string
}

func NewOCRExtractor(binary, language string) *OCRExtractor {
	if binary == "" {
		binary = DefaultTesseractPath
	}
	return &OCRExtractor{Binary: binary, Language: language}
}

func (e *OCRExtractor) args(path string) []string {
	args := []string{path, "stdout"}
	if e.Language != "" {
		args = append(args, "-l", e.Language)
	}
	return args
}

func (e *OCRExtractor) Extract(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, e.Binary, e.args(path)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Get().Trace().Msgf("执行 OCR: %s %s", e.Binary, strings.Join(e.args(path), " "))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%w: tesseract 执行失败: %w: %s", internal.ErrExtraction, err, msg)
		}
		return "", fmt.Errorf("%w: tesseract 执行失败: %w", internal.ErrExtraction, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
