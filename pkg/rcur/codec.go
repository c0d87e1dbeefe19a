package rcur

import (
	"bytes"
	"encoding/binary"
)

// Encode 写出 magic、版本、长度表与按槽位顺序拼接的图像字节。
// 总是成功；返回的切片为新分配内存。
func Encode(images Images) []byte {
	c := Container{Version: Version, Images: images}
	buf := make([]byte, 0, c.Size())
	buf = append(buf, Magic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, Version)
	for _, b := range images {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	}
	for _, b := range images {
		buf = append(buf, b...)
	}
	return buf
}

// Decode 解析容器字节。
// 错误：*FormatError（Unwrap 为 ErrInvalidMagic / ErrTruncatedHeader / ErrCorruptedLength）。
// 版本不一致不算错误，调用方通过 Container.Warning 获取告警。
// 第三个槽位之后的多余字节被忽略。返回的图像切片引用 b 的底层内存。
func Decode(b []byte) (Container, error) {
	var c Container
	// 已有字节与 magic 不符时报 magic 错误；否则按截断处理
	n := len(Magic)
	if len(b) < n {
		if !bytes.HasPrefix(Magic[:], b) {
			return c, &FormatError{Kind: ErrInvalidMagic, Size: len(b)}
		}
		return c, &FormatError{Kind: ErrTruncatedHeader, Size: len(b)}
	}
	if !bytes.Equal(b[:n], Magic[:]) {
		return c, &FormatError{Kind: ErrInvalidMagic, Size: len(b)}
	}
	if len(b) < HeaderSize {
		return c, &FormatError{Kind: ErrTruncatedHeader, Size: len(b)}
	}
	off := n
	c.Version = binary.LittleEndian.Uint32(b[off:])
	off += 4
	var lengths [SlotCount]uint32
	for i := range lengths {
		lengths[i] = binary.LittleEndian.Uint32(b[off:])
		off += 4
	}
	for i, l := range lengths {
		remaining := len(b) - off
		if uint64(l) > uint64(remaining) {
			return Container{}, &FormatError{
				Kind:      ErrCorruptedLength,
				Size:      len(b),
				Slot:      Slot(i),
				Declared:  l,
				Remaining: remaining,
			}
		}
		end := off + int(l)
		c.Images[i] = b[off:end:end]
		off = end
	}
	return c, nil
}

// IsContainer 判断 b 是否以容器 magic 开头。
func IsContainer(b []byte) bool {
	return len(b) >= len(Magic) && bytes.Equal(b[:len(Magic)], Magic[:])
}
