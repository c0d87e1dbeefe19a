package contract

// FileID: 逻辑文件标识（通常为路径，已规范化，跨平台一致）；用于日志与报告。
type FileID string

// ArtifactID: 相对于 Writer 输出根的目标文件标识。
type ArtifactID string

// Artifact: 一次提交中的单个输出文件（内容已在内存中构建完毕）。
type Artifact struct {
	ID   ArtifactID
	Data []byte
}
