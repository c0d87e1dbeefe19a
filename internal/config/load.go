package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"rcurkit/internal/diag"
)

// EnvPrefix 为环境变量覆盖的统一前缀。
const EnvPrefix = "RCUR_"

// Defaults 返回带有安全默认值的 Config。
func Defaults() Config {
	return Config{
		Concurrency: 1,
		Suffix:      ".rcur",
		OutputDir:   ".",
		Logging:     Logging{Level: "info"},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）；零值不覆盖。
func Merge(base, over Config) Config {
	out := base
	if over.Concurrency != 0 {
		out.Concurrency = over.Concurrency
	}
	if s := strings.TrimSpace(over.Suffix); s != "" {
		out.Suffix = s
	}
	if s := strings.TrimSpace(over.OutputDir); s != "" {
		out.OutputDir = s
	}
	if over.MaxFileBytes != 0 {
		out.MaxFileBytes = over.MaxFileBytes
	}
	if s := strings.TrimSpace(over.MetricsFile); s != "" {
		out.MetricsFile = s
	}
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}
	if s := strings.TrimSpace(over.Logging.Dir); s != "" {
		out.Logging.Dir = s
	}
	if over.Writer.Atomic != nil {
		v := *over.Writer.Atomic
		out.Writer.Atomic = &v
	}
	if over.Writer.PermFile != 0 {
		out.Writer.PermFile = over.Writer.PermFile
	}
	if over.Writer.PermDir != 0 {
		out.Writer.PermDir = over.Writer.PermDir
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 支持：CONCURRENCY, SUFFIX, OUTPUT_DIR, MAX_FILE_BYTES, METRICS_FILE,
// LOGGING_LEVEL, LOGGING_DIR, WRITER_ATOMIC, WRITER_PERM_FILE, WRITER_PERM_DIR。
// 数值无法解析时返回错误（指明键名）。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := kv[:eq]
		val := strings.TrimSpace(kv[eq+1:])
		if val == "" {
			continue
		}
		var err error
		switch strings.TrimPrefix(key, EnvPrefix) {
		case "CONCURRENCY":
			over.Concurrency, err = strconv.Atoi(val)
		case "SUFFIX":
			over.Suffix = val
		case "OUTPUT_DIR":
			over.OutputDir = val
		case "MAX_FILE_BYTES":
			over.MaxFileBytes, err = strconv.ParseInt(val, 10, 64)
		case "METRICS_FILE":
			over.MetricsFile = val
		case "LOGGING_LEVEL":
			over.Logging.Level = val
		case "LOGGING_DIR":
			over.Logging.Dir = val
		case "WRITER_ATOMIC":
			var b bool
			if b, err = strconv.ParseBool(val); err == nil {
				over.Writer.Atomic = &b
			}
		case "WRITER_PERM_FILE":
			over.Writer.PermFile, err = parsePerm(val)
		case "WRITER_PERM_DIR":
			over.Writer.PermDir, err = parsePerm(val)
		default:
			// CONFIG_FILE 等由调用方处理；其余忽略
		}
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", key, err)
		}
	}
	return over, nil
}

// parsePerm 解析八进制权限（如 644 / 0o644 / 0644）。
func parsePerm(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "0o"), "0")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Validate 校验合并后的配置。
func Validate(c Config) error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if s := strings.TrimSpace(c.Suffix); s == "" || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid suffix %q", c.Suffix)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir must not be empty")
	}
	if c.MaxFileBytes < 0 {
		return fmt.Errorf("max_file_bytes must be >= 0, got %d", c.MaxFileBytes)
	}
	if !diag.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	if c.Writer.PermFile > 0o777 || c.Writer.PermDir > 0o777 {
		return errors.New("writer permissions must be within 0777")
	}
	return nil
}

// AtomicWrites 返回生效的原子写开关（默认 true）。
func (c Config) AtomicWrites() bool {
	return c.Writer.Atomic == nil || *c.Writer.Atomic
}
