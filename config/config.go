package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/moyu-x/files-filter/internal"
)

const EnvPrefix = "FILES_FILTER"

type Config struct {
	Logging struct {
		Level string
		File  string
	}
	Hasher struct {
		Algorithm string
		Workers   int
	}
	Labeler struct {
		Provider     string
		Model        string
		APIKey       string `mapstructure:"api_key"`
		BaseURL      string `mapstructure:"base_url"`
		PrefixLength int    `mapstructure:"prefix_length"`
		MaxTokens    int    `mapstructure:"max_tokens"`
	}
	Extractor struct {
		TesseractPath string `mapstructure:"tesseract_path"`
		Language      string
	}
}

// 各服务提供方惯用的环境变量，FILES_FILTER_LABELER_API_KEY 未设置时依次查找
var providerKeyEnv = map[string][]string{
	"openai": {"OPENAI_API_KEY"},
	"claude": {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
	"gemini": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// LoadEnv 加载 .env 文件，文件不存在时忽略
// 已存在的环境变量不会被覆盖
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load 读取配置，configFile 为空时按默认路径查找 config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("$HOME/.files-filter")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/files-filter")
	}

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("hasher.algorithm", "sha256")
	v.SetDefault("hasher.workers", internal.DefaultWorkers)
	v.SetDefault("labeler.provider", "openai")
	v.SetDefault("labeler.model", "")
	v.SetDefault("labeler.api_key", "")
	v.SetDefault("labeler.base_url", "")
	v.SetDefault("labeler.prefix_length", internal.DefaultPrefixLength)
	v.SetDefault("labeler.max_tokens", internal.DefaultMaxTokens)
	v.SetDefault("extractor.tesseract_path", "tesseract")
	v.SetDefault("extractor.language", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("labeler.api_key", EnvPrefix+"_LABELER_API_KEY", EnvPrefix+"_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Labeler.APIKey == "" {
		cfg.Labeler.APIKey = providerAPIKey(cfg.Labeler.Provider)
	}

	return &cfg, nil
}

func providerAPIKey(provider string) string {
	for _, name := range providerKeyEnv[strings.ToLower(provider)] {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
