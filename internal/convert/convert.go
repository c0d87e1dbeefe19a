// Package convert 将旧版 base64 文本 .rcur 文件原地转换为二进制容器。
package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rcurkit/pkg/contract"
	"rcurkit/pkg/rcur"
	rfs "rcurkit/plugins/reader/filesystem"
	wfs "rcurkit/plugins/writer/filesystem"
)

// Options 为转换器选项。
type Options struct {
	// Reader 为空时使用默认 Reader。
	Reader *rfs.FileSystem
	// Atomic: 是否临时文件 + rename 替换原文件（默认应为 true）。
	Atomic bool
}

// Converter 逐文件执行转换；无跨文件状态，可并发调用。
type Converter struct {
	reader *rfs.FileSystem
	atomic bool
}

// Result 描述一次成功转换。
type Result struct {
	Path  string
	Sizes [rcur.SlotCount]int
	Bytes int
}

// New 创建转换器。
func New(opts Options) *Converter {
	r := opts.Reader
	if r == nil {
		r = rfs.New(nil)
	}
	return &Converter{reader: r, atomic: opts.Atomic}
}

// Convert 读取 path 的旧版文本，校验并在内存中构建完整二进制容器后替换原文件。
// 任何失败路径下原文件保持不变。原文件权限位被保留；符号链接替换其目标文件。
func (c *Converter) Convert(ctx context.Context, path string) (Result, error) {
	res := Result{Path: path}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return res, err
	}
	data, err := c.reader.Read(ctx, target)
	if err != nil {
		return res, err
	}
	images, err := rcur.ParseLegacy(data)
	if err != nil {
		return res, err
	}
	out := rcur.Encode(images)

	st, err := os.Stat(target)
	if err != nil {
		return res, err
	}
	atomic := c.atomic
	w, err := wfs.New(&wfs.Options{
		OutputDir: filepath.Dir(target),
		Atomic:    &atomic,
		PermFile:  st.Mode().Perm(),
	})
	if err != nil {
		return res, err
	}
	if err := w.Write(ctx, contract.ArtifactID(filepath.Base(target)), bytes.NewReader(out)); err != nil {
		return res, fmt.Errorf("replace %s: %w", target, err)
	}
	for i, im := range images {
		res.Sizes[i] = len(im)
	}
	res.Bytes = len(out)
	return res, nil
}
