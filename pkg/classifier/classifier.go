package classifier

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/spf13/afero"
)

const BufferSize = 8192

// Kind 重命名阶段关心的文件类别
type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	default:
		return "other"
	}
}

// Eligible 只有图片和 PDF 会被提取文本并重命名
func (k Kind) Eligible() bool {
	return k == KindImage || k == KindPDF
}

// 魔数无法识别时按扩展名兜底
var extensionKinds = map[string]Kind{
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".pdf":  KindPDF,
}

type Classifier struct {
	fs afero.Fs
}

func NewClassifier(fs afero.Fs) *Classifier {
	return &Classifier{fs: fs}
}

// Detect 读取文件头部，用 filetype 判断类别
func (c *Classifier) Detect(filePath string) (Kind, error) {
	head, err := c.readFileBuffer(filePath)
	if err != nil {
		return KindOther, err
	}

	kind, err := filetype.Match(head)
	if err == nil && kind != types.Unknown {
		return kindOf(kind), nil
	}

	return extensionKinds[strings.ToLower(filepath.Ext(filePath))], nil
}

func kindOf(t types.Type) Kind {
	if t.MIME.Type == "image" {
		return KindImage
	}
	if t.Extension == "pdf" {
		return KindPDF
	}
	return KindOther
}

func (c *Classifier) readFileBuffer(filePath string) ([]byte, error) {
	file, err := c.fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, BufferSize)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("读取文件头部失败: %w", err)
	}

	return buffer[:n], nil
}
