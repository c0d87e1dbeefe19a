package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rcurkit/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// Suffix: 目录扫描时匹配的文件后缀（不区分大小写）。默认 ".rcur"。
	Suffix string `json:"suffix"`
	// MaxBytes: 单文件读取上限；<=0 不限制。
	MaxBytes int64 `json:"max_bytes"`
}

// FileSystem 提供单文件整体读取与目录（非递归）扫描。
type FileSystem struct {
	suffix   string
	maxBytes int64
}

// ErrTooLarge: 文件超过 MaxBytes。
var ErrTooLarge = errors.New("file too large")

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	r := &FileSystem{suffix: ".rcur"}
	if opts != nil {
		if s := strings.TrimSpace(opts.Suffix); s != "" {
			r.suffix = strings.ToLower(s)
		}
		r.maxBytes = opts.MaxBytes
	}
	return r
}

// Suffix 返回生效的扫描后缀。
func (r *FileSystem) Suffix() string { return r.suffix }

// Scan 列出 dir 下（不递归）后缀匹配的常规文件，按文件名字典序返回完整路径。
// 指向常规文件的符号链接计入；目录、目录符号链接与失效链接跳过。
// dir 不存在或不是目录时返回包装 contract.ErrUsage 的错误。
func (r *FileSystem) Scan(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: Folder not found: %s", contract.ErrUsage, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	// 稳定顺序：字典序
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), r.suffix) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		// 跟随符号链接判断目标类型
		t, err := os.Stat(p)
		if err != nil || !t.Mode().IsRegular() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Read 读取单个文件的全部字节。path 必须指向常规文件（允许符号链接）。
func (r *FileSystem) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", contract.ErrNotRegular, path)
	}
	if r.maxBytes > 0 && st.Size() > r.maxBytes {
		return nil, fmt.Errorf("%w: %s (%d > %d bytes)", ErrTooLarge, path, st.Size(), r.maxBytes)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var src io.Reader = f
	if r.maxBytes > 0 {
		// 读取期间文件变大时同样截断判定
		src = io.LimitReader(f, r.maxBytes+1)
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if r.maxBytes > 0 && int64(len(b)) > r.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, path)
	}
	return b, nil
}
