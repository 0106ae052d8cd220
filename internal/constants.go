package internal

const (
	// 配置文件默认路径
	DefaultConfigPath = "~/.files-filter/config.yaml"

	// 哈希计算时每次读取的块大小
	DefaultChunkSize = 32 * 1024

	// 默认哈希计算线程数，1 表示在当前 goroutine 中顺序计算
	DefaultWorkers = 1

	// 文件名最大长度
	MaxNameLength = 100

	// 文件名清洗后为空时使用的默认名称
	FallbackName = "Untitled"

	// 发送给标签生成服务的文本前缀长度
	DefaultPrefixLength = 200

	// 标签生成服务的最大输出 token 数
	DefaultMaxTokens = 10
)
