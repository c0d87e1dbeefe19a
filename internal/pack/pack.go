// Package pack 由三个图像文件构建 .rcur 容器。
package pack

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"rcurkit/pkg/contract"
	"rcurkit/pkg/rcur"
	rfs "rcurkit/plugins/reader/filesystem"
	wfs "rcurkit/plugins/writer/filesystem"
)

// Inputs 按槽位顺序给出图像文件路径。
type Inputs [rcur.SlotCount]string

// Validate 要求每个槽位都给出路径；缺失时返回包装 contract.ErrUsage 的错误。
func (in Inputs) Validate() error {
	for i, p := range in {
		if p == "" {
			return fmt.Errorf("%w: missing input for slot %s", contract.ErrUsage, rcur.Slot(i))
		}
	}
	return nil
}

// Pack 读取三个图像文件，编码后原子写出到 out。任一输入缺失或读取失败时不写出。
func Pack(ctx context.Context, r *rfs.FileSystem, in Inputs, out string) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if r == nil {
		r = rfs.New(nil)
	}
	var images rcur.Images
	for i, p := range in {
		b, err := r.Read(ctx, p)
		if err != nil {
			return 0, fmt.Errorf("slot %s: %w", rcur.Slot(i), err)
		}
		images[i] = b
	}
	data := rcur.Encode(images)
	abs, err := filepath.Abs(out)
	if err != nil {
		return 0, err
	}
	w, err := wfs.New(&wfs.Options{OutputDir: filepath.Dir(abs)})
	if err != nil {
		return 0, err
	}
	if err := w.Write(ctx, contract.ArtifactID(filepath.Base(abs)), bytes.NewReader(data)); err != nil {
		return 0, err
	}
	return len(data), nil
}
