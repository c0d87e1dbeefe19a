package contract

import "errors"

// 路径与调用相关的最小错误分类。
var (
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrUsage: 命令行调用错误（缺少参数、目录不存在等），仅终止本次调用。
	ErrUsage = errors.New("usage error")
	// ErrNotRegular: 输入不是常规文件。
	ErrNotRegular = errors.New("not a regular file")
)
