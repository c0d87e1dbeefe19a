// Package extract 将二进制 .rcur 容器拆分为三个图像文件。
package extract

import (
	"context"
	"os"

	"rcurkit/pkg/contract"
	"rcurkit/pkg/rcur"
	rfs "rcurkit/plugins/reader/filesystem"
	wfs "rcurkit/plugins/writer/filesystem"
)

// Options 为提取器选项。
type Options struct {
	Reader   *rfs.FileSystem
	PermFile os.FileMode
	PermDir  os.FileMode
}

// Extractor 逐文件执行提取；不修改容器文件，可并发调用。
type Extractor struct {
	reader *rfs.FileSystem
	permF  os.FileMode
	permD  os.FileMode
}

// Result 描述一次成功提取。
type Result struct {
	Path    string
	OutDir  string
	Version uint32
	// Warning 非 nil 时为 *rcur.VersionMismatch：已按当前布局继续提取。
	Warning error
	Files   [rcur.SlotCount]string
	Bytes   int
}

// New 创建提取器。
func New(opts Options) *Extractor {
	r := opts.Reader
	if r == nil {
		r = rfs.New(nil)
	}
	return &Extractor{reader: r, permF: opts.PermFile, permD: opts.PermDir}
}

// Extract 读取并解码 path，成功后在 outDir（按需创建多级目录）写出
// ArrowFar.png、Arrow.png、IBeam.png。解码失败时不做任何文件系统写入；
// 写出为全部或全不。
func (e *Extractor) Extract(ctx context.Context, path, outDir string) (Result, error) {
	res := Result{Path: path, OutDir: outDir}
	data, err := e.reader.Read(ctx, path)
	if err != nil {
		return res, err
	}
	c, err := rcur.Decode(data)
	if err != nil {
		return res, err
	}
	res.Version = c.Version
	res.Warning = c.Warning()

	w, err := wfs.New(&wfs.Options{OutputDir: outDir, PermFile: e.permF, PermDir: e.permD})
	if err != nil {
		return res, err
	}
	files := make([]contract.Artifact, 0, rcur.SlotCount)
	for _, s := range rcur.Slots() {
		files = append(files, contract.Artifact{ID: contract.ArtifactID(s.FileName()), Data: c.Images.Get(s)})
		res.Files[s] = s.FileName()
		res.Bytes += len(c.Images.Get(s))
	}
	if err := w.WriteAll(ctx, files); err != nil {
		return res, err
	}
	return res, nil
}
