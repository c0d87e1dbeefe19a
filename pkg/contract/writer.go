package contract

import (
	"context"
	"io"
)

// Writer: 将已构建完成的结果持久化到目标介质。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 失败时不得留下半写文件（临时文件 + 替换）；
//  3. ctx 取消需尽快返回；
//  4. 错误直接上抛（不做重试/回退）。
type Writer interface {
	// Write 写入单个工件，整体替换已存在的同名文件。
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
	// WriteAll 以“全部或全不”语义提交一组工件：
	// 先全部写入临时文件，再逐个替换；任一步失败则回滚已替换的文件。
	WriteAll(ctx context.Context, files []Artifact) error
}
