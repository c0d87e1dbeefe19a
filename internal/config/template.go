package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// FileName 为工作目录下默认读取的配置文件名。
const FileName = "rcur.json"

// DefaultTemplateConfig 返回包含全部键的默认配置模板（值为安全默认）。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	atomic := true
	cfg.Writer = Writer{Atomic: &atomic, PermFile: 0o644, PermDir: 0o755}
	return cfg
}

// WriteTemplate 在 dir 下生成 rcur.json；文件已存在时不覆盖并返回 (path, false, nil)。
func WriteTemplate(dir string) (string, bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}
	path := filepath.Join(dir, FileName)
	b, err := json.MarshalIndent(DefaultTemplateConfig(), "", "  ")
	if err != nil {
		return path, false, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return path, false, nil
		}
		return path, false, err
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return path, false, err
	}
	return path, true, nil
}
