package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// DotEnvName 为工作目录下自动加载的环境文件名。
const DotEnvName = ".env"

// LoadDotEnv 读取简单的 .env 文件并注入进程环境。
// 规则：
// - 文件不存在时忽略；
// - 跳过空行与 # 注释行，支持可选前缀 "export "；
// - 仅按首个 '=' 分割，成对的单/双引号被去除；
// - 不覆盖已存在的环境变量。
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := unquote(strings.TrimSpace(line[eq+1:]))
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return s.Err()
}

func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	q := v[0]
	if (q != '\'' && q != '"') || v[len(v)-1] != q {
		return v
	}
	v = v[1 : len(v)-1]
	if q == '"' {
		v = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`).Replace(v)
	}
	return v
}

// envKeys 为模板中列出的覆盖项（按 EnvOverlay 支持的键）。
var envKeys = []string{
	"CONFIG_FILE", "CONCURRENCY", "SUFFIX", "OUTPUT_DIR", "MAX_FILE_BYTES", "METRICS_FILE",
	"LOGGING_LEVEL", "LOGGING_DIR", "WRITER_ATOMIC", "WRITER_PERM_FILE", "WRITER_PERM_DIR",
}

// WriteDotEnvTemplate 在 dir 下生成 .env 模板；已存在时跳过，返回是否新建。
func WriteDotEnvTemplate(dir string) (string, bool, error) {
	path := filepath.Join(dir, DotEnvName)
	var b strings.Builder
	b.WriteString("# rcur .env（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > JSON > 默认\n\n")
	for _, k := range envKeys {
		b.WriteString("# " + EnvPrefix + k + "=\n")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return path, false, nil
		}
		return path, false, err
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return path, false, err
	}
	return path, true, nil
}
