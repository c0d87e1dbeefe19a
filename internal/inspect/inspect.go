// Package inspect 只读地报告 .rcur 容器的版本与各槽位图像信息。
package inspect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"rcurkit/pkg/rcur"
	rfs "rcurkit/plugins/reader/filesystem"
)

// SlotInfo 描述单个槽位。
type SlotInfo struct {
	Slot   rcur.Slot
	Size   int
	Format string // png/gif/jpeg；无法识别时为空
	Width  int
	Height int
}

// Report 为单个容器的检查结果。
type Report struct {
	Path    string
	Size    int
	Version uint32
	Warning error
	Slots   [rcur.SlotCount]SlotInfo
}

// Inspect 读取并解码 path；不写任何文件。
func Inspect(ctx context.Context, r *rfs.FileSystem, path string) (Report, error) {
	rep := Report{Path: path}
	if r == nil {
		r = rfs.New(nil)
	}
	data, err := r.Read(ctx, path)
	if err != nil {
		return rep, err
	}
	c, err := rcur.Decode(data)
	if err != nil {
		return rep, err
	}
	rep.Size = len(data)
	rep.Version = c.Version
	rep.Warning = c.Warning()
	for _, s := range rcur.Slots() {
		b := c.Images.Get(s)
		info := SlotInfo{Slot: s, Size: len(b)}
		if len(b) > 0 {
			if cfg, format, err := image.DecodeConfig(bytes.NewReader(b)); err == nil {
				info.Format = format
				info.Width, info.Height = cfg.Width, cfg.Height
			}
		}
		rep.Slots[s] = info
	}
	return rep, nil
}

// WriteTo 以人类可读格式输出报告。
func (rep Report) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	bold := color.New(color.Bold)
	bold.Fprintf(&b, "%s:\n", rep.Path)
	fmt.Fprintf(&b, "\tversion: %d, size: %s\n", rep.Version, humanize.Bytes(uint64(rep.Size)))
	for _, s := range rep.Slots {
		kind := "unknown"
		if s.Format != "" {
			kind = fmt.Sprintf("%s %dx%d", s.Format, s.Width, s.Height)
		} else if s.Size == 0 {
			kind = "empty"
		}
		fmt.Fprintf(&b, "\t%-9s %-12s %10s  %s\n", s.Slot, s.Slot.FileName(), humanize.Bytes(uint64(s.Size)), kind)
	}
	n, err := w.Write(b.Bytes())
	return int64(n), err
}
