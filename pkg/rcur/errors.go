package rcur

import (
	"errors"
	"fmt"
)

// 容器格式错误（二进制）。
var (
	// ErrInvalidMagic: 前 5 字节不是 "RCUR\x00"。
	ErrInvalidMagic = errors.New("invalid RCUR magic header")
	// ErrTruncatedHeader: 不足以容纳 magic + version + 长度表。
	ErrTruncatedHeader = errors.New("truncated RCUR header")
	// ErrCorruptedLength: 声明长度超过剩余字节（截断或长度字段损坏）。
	ErrCorruptedLength = errors.New("corrupted image data length")
)

// 旧版文本格式错误。
var (
	// ErrSlotCountMismatch: 非空行数量不是 SlotCount。
	ErrSlotCountMismatch = errors.New("slot count mismatch")
	// ErrInvalidBase64: 某一行不是合法 base64。
	ErrInvalidBase64 = errors.New("invalid base64")
	// ErrNotText: 内容不是合法 UTF-8 文本。
	ErrNotText = errors.New("not UTF-8 text")
	// ErrAlreadyBinary: 内容已是二进制容器，无需转换。
	ErrAlreadyBinary = errors.New("already in binary RCUR format")
)

// FormatError 携带容器解码失败的位置细节。
type FormatError struct {
	Kind error
	// Size: 输入总字节数。
	Size int
	// Slot/Declared/Remaining 仅对 ErrCorruptedLength 有意义。
	Slot      Slot
	Declared  uint32
	Remaining int
}

func (e *FormatError) Error() string {
	switch e.Kind {
	case ErrTruncatedHeader:
		return fmt.Sprintf("%v: have %d bytes, need at least %d", e.Kind, e.Size, HeaderSize)
	case ErrCorruptedLength:
		return fmt.Sprintf("%v: slot %d (%s) declares %d bytes but only %d remain (short by %d)",
			e.Kind, int(e.Slot), e.Slot, e.Declared, e.Remaining, int64(e.Declared)-int64(e.Remaining))
	default:
		return e.Kind.Error()
	}
}

func (e *FormatError) Unwrap() error { return e.Kind }

// LegacyError 携带旧版文本解析失败的细节。
type LegacyError struct {
	Kind error
	// Found: 实际非空行数（ErrSlotCountMismatch）。
	Found int
	// Line: 1 起始的非空行序号（ErrInvalidBase64）。
	Line int
	Err  error
}

func (e *LegacyError) Error() string {
	switch e.Kind {
	case ErrSlotCountMismatch:
		return fmt.Sprintf("expected %d base64-encoded lines, found %d", SlotCount, e.Found)
	case ErrInvalidBase64:
		if e.Err != nil {
			return fmt.Sprintf("line %d is not valid base64: %v", e.Line, e.Err)
		}
		return fmt.Sprintf("line %d is not valid base64", e.Line)
	default:
		return e.Kind.Error()
	}
}

func (e *LegacyError) Unwrap() error { return e.Kind }

// VersionMismatch 为非致命告警：版本号不是 Version，解码按同一布局继续。
type VersionMismatch struct {
	Found    uint32
	Expected uint32
}

func (w *VersionMismatch) Error() string {
	return fmt.Sprintf("file version is %d, but expected %d", w.Found, w.Expected)
}
