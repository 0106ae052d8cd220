package labeler

import (
	"context"
	"fmt"
	"strings"

	"github.com/moyu-x/files-filter/internal"
)

// Client 文本生成服务
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider     string
	Model        string
	APIKey       string
	BaseURL      string
	PrefixLength int
	MaxTokens    int
}

var defaultModels = map[string]string{
	"openai": "gpt-4o-mini",
	"claude": "claude-3-5-haiku-latest",
	"gemini": "gemini-1.5-flash",
	"ollama": "llama3.2",
}

const defaultOllamaURL = "http://localhost:11434"

// NewClient 根据配置创建客户端，启动时调用一次
// 缺少凭证时返回 ErrConfiguration，调用方应在处理任何文件之前退出
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "openai"
	}

	model := cfg.Model
	if model == "" {
		model = defaultModels[provider]
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = internal.DefaultMaxTokens
	}

	if cfg.APIKey == "" && provider != "ollama" {
		return nil, fmt.Errorf("%w: 缺少 %s 的 API Key，请在 .env 或环境变量中设置 FILES_FILTER_API_KEY", internal.ErrConfiguration, provider)
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, model, cfg.BaseURL, maxTokens), nil

	case "claude":
		return NewClaudeClient(cfg.APIKey, model, cfg.BaseURL, maxTokens), nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, model, maxTokens)
		if err != nil {
			return nil, fmt.Errorf("%w: 创建 gemini 客户端失败: %w", internal.ErrConfiguration, err)
		}
		return c, nil

	case "ollama":
		// ollama 提供 OpenAI 兼容接口，API Key 会被忽略
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, model, baseURL, maxTokens), nil

	default:
		return nil, fmt.Errorf("%w: 不支持的服务提供方: %s", internal.ErrConfiguration, provider)
	}
}
