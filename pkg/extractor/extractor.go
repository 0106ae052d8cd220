// Package extractor 从图片和 PDF 中提取文本。
//
// 图片通过 tesseract 命令行做 OCR，PDF 使用纯 Go 的 ledongthuc/pdf 解析。
// 提取结果为空是正常情况（例如空白图片），调用方应视为“没有可用名称”，
// 不是错误。所有失败都包装为 internal.ErrExtraction。
package extractor

import (
	"context"
	"fmt"

	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/classifier"
)

// Backend 单一类型文件的文本提取实现
type Backend interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Dispatcher 按文件类别选择提取实现
type Dispatcher struct {
	Image Backend
	PDF   Backend
}

func NewDispatcher(image, pdf Backend) *Dispatcher {
	return &Dispatcher{Image: image, PDF: pdf}
}

func (d *Dispatcher) Extract(ctx context.Context, path string, kind classifier.Kind) (string, error) {
	var backend Backend
	switch kind {
	case classifier.KindImage:
		backend = d.Image
	case classifier.KindPDF:
		backend = d.PDF
	}

	if backend == nil {
		return "", fmt.Errorf("%w: 不支持的文件类型 %s: %s", internal.ErrExtraction, kind, path)
	}

	return backend.Extract(ctx, path)
}
