package diag

import (
	"context"
	"errors"
	"os"

	"rcurkit/pkg/contract"
	"rcurkit/pkg/rcur"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeFormat    Code = "format"
	CodeLegacy    Code = "legacy"
	CodeUsage     Code = "usage"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrUsage) {
		return CodeUsage
	}
	// 二进制容器
	if errors.Is(err, rcur.ErrInvalidMagic) ||
		errors.Is(err, rcur.ErrTruncatedHeader) ||
		errors.Is(err, rcur.ErrCorruptedLength) {
		return CodeFormat
	}
	// 旧版文本
	if errors.Is(err, rcur.ErrSlotCountMismatch) ||
		errors.Is(err, rcur.ErrInvalidBase64) ||
		errors.Is(err, rcur.ErrNotText) ||
		errors.Is(err, rcur.ErrAlreadyBinary) {
		return CodeLegacy
	}
	if errors.Is(err, contract.ErrPathInvalid) || errors.Is(err, contract.ErrNotRegular) {
		return CodeInvariant
	}
	// I/O
	var perr *os.PathError
	var lerr *os.LinkError
	if errors.As(err, &perr) || errors.As(err, &lerr) {
		return CodeIO
	}
	return CodeUnknown
}
