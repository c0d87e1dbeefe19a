package config

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Concurrency: 批量处理时的并发文件数（>=1）。1 为顺序处理。
	Concurrency int `json:"concurrency"`
	// Suffix: --folder 扫描的文件后缀（不区分大小写）。
	Suffix string `json:"suffix"`
	// OutputDir: 提取输出的基目录（单文件直接写入；目录模式写入以容器文件名命名的子目录）。
	OutputDir string `json:"output_dir"`
	// MaxFileBytes: 单个输入文件的读取上限；0 不限制。
	MaxFileBytes int64 `json:"max_file_bytes"`
	// MetricsFile: 非空时在运行结束写出 Prometheus textfile。
	MetricsFile string  `json:"metrics_file"`
	Logging     Logging `json:"logging"`
	Writer      Writer  `json:"writer"`
}

// Logging: 日志等级与可选的轮转日志目录（为空不落盘）。
type Logging struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// Writer: 文件系统写出选项。
type Writer struct {
	// Atomic: 原地转换是否使用临时文件 + rename；nil 表示默认 true。
	Atomic *bool `json:"atomic,omitempty"`
	// PermFile/PermDir: 新建文件/目录权限；0 使用默认（0644/0755）。
	PermFile uint32 `json:"perm_file,omitempty"`
	PermDir  uint32 `json:"perm_dir,omitempty"`
}
