package labeler

import (
	"context"
	"fmt"
	"strings"

	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/logger"
)

const promptTemplate = `Generate a concise and descriptive file name for the following content.
Rules:
- Return only the name, nothing else.
- Keep it short, a few words at most.
- Use plain words only, no symbols, emojis or file extensions.
- Prefer the title, chapter name or the most repeated word.
- Do not add any introduction or commentary such as "Here is a proposed name".

Content:
%s`

// Labeler 根据提取到的文本生成候选文件名
// 返回值未经清洗，可能为空或包含任意字符，调用方必须交给 sanitizer 处理
type Labeler struct {
	client       Client
	prefixLength int
}

func New(client Client, prefixLength int) *Labeler {
	if prefixLength <= 0 {
		prefixLength = internal.DefaultPrefixLength
	}
	return &Labeler{client: client, prefixLength: prefixLength}
}

// Prefix 截取前 n 个字符，只有开头部分会发送给服务
func Prefix(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func (l *Labeler) Prompt(text string) string {
	return fmt.Sprintf(promptTemplate, Prefix(text, l.prefixLength))
}

func (l *Labeler) SuggestLabel(ctx context.Context, text string) (string, error) {
	resp, err := l.client.Generate(ctx, l.Prompt(text))
	if err != nil {
		return "", fmt.Errorf("%w: %w", internal.ErrGeneration, err)
	}

	label := strings.TrimSpace(resp)
	logger.Get().Debug().Msgf("候选名称: %q", label)
	return label, nil
}
