package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/afero"

	"github.com/moyu-x/files-filter/internal"
)

type PDFExtractor struct {
	fs afero.Fs
}

func NewPDFExtractor(fs afero.Fs) *PDFExtractor {
	return &PDFExtractor{fs: fs}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := e.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w: %w", internal.ErrExtraction, internal.ErrRead, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %w: %w", internal.ErrExtraction, internal.ErrRead, err)
	}

	// ledongthuc/pdf 遇到损坏的文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: 解析 PDF 失败: %v", internal.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", fmt.Errorf("%w: 打开 PDF 失败: %w", internal.ErrExtraction, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: 读取 PDF 文本失败: %w", internal.ErrExtraction, err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Errorf("%w: 读取 PDF 文本失败: %w", internal.ErrExtraction, err)
	}

	return strings.TrimSpace(b.String()), nil
}
