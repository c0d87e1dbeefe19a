package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rcurkit/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// OutputDir: 输出根目录（必需）。
	OutputDir string `json:"output_dir"`
	// Atomic: Write 是否使用原子替换（同目录临时文件 + rename）。
	// 默认值：true。显式 false 时退化为截断覆盖写（WriteAll 始终分阶段提交）。
	Atomic *bool `json:"atomic,omitempty"`
	// PermFile/PermDir: 可选权限；为 0 表示使用实现默认。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
	// BufSize: 写缓冲区大小；<=0 使用实现默认。
	BufSize int `json:"buf_size,omitempty"`
}

type FS struct {
	root    string
	atomic  bool
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
}

// New 创建文件系统 Writer 实现。
func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, os.ErrInvalid
	}
	bsz := opts.BufSize
	if bsz <= 0 {
		bsz = 64 * 1024
	}
	pf := opts.PermFile
	if pf == 0 {
		pf = 0o644
	}
	pd := opts.PermDir
	if pd == 0 {
		pd = 0o755
	}
	atomic := true
	if opts.Atomic != nil {
		atomic = *opts.Atomic
	}
	return &FS{root: opts.OutputDir, atomic: atomic, permF: pf, permD: pd, bufSize: bsz}, nil
}

var _ contract.Writer = (*FS)(nil)

// replaceFile 可在测试中替换以注入提交失败。
var replaceFile = osReplace

// Write 将 r 的全部字节写入到基于 id 映射的目标路径。
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := w.mapPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return err
	}
	if w.atomic {
		tmp, err := w.stage(ctx, dest, r)
		if err != nil {
			return err
		}
		if err := replaceFile(tmp, dest); err != nil {
			_ = os.Remove(tmp)
			return err
		}
		// 最佳努力：同步父目录，提升崩溃安全性
		_ = syncDir(filepath.Dir(dest))
		return nil
	}
	return w.writeOverwrite(ctx, dest, r)
}

// staged: 一个已写入临时文件、待替换到 dest 的工件。
type staged struct {
	dest   string
	tmp    string
	backup string // dest 原有内容的备份路径（不存在则为空）
	done   bool
}

// WriteAll 分两阶段提交：全部写入同目录临时文件后，再逐个替换目标。
// 任一阶段失败时删除临时文件，并恢复已替换目标的原内容（或删除新建文件）。
func (w *FS) WriteAll(ctx context.Context, files []contract.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// 先校验全部路径，避免部分落盘后才发现越界
	dests := make([]string, len(files))
	for i, f := range files {
		d, err := w.mapPath(f.ID)
		if err != nil {
			return err
		}
		dests[i] = d
	}
	set := make([]*staged, 0, len(files))
	cleanup := func() {
		for _, s := range set {
			if s.tmp != "" {
				_ = os.Remove(s.tmp)
			}
		}
	}
	for i, f := range files {
		if err := os.MkdirAll(filepath.Dir(dests[i]), w.permD); err != nil {
			cleanup()
			return err
		}
		tmp, err := w.stage(ctx, dests[i], bytes.NewReader(f.Data))
		if err != nil {
			cleanup()
			return err
		}
		set = append(set, &staged{dest: dests[i], tmp: tmp})
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}
	for _, s := range set {
		if err := s.commit(); err != nil {
			rollback(set)
			return err
		}
	}
	for _, s := range set {
		if s.backup != "" {
			_ = os.Remove(s.backup)
		}
	}
	seen := map[string]struct{}{}
	for _, d := range dests {
		dir := filepath.Dir(d)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			_ = syncDir(dir)
		}
	}
	return nil
}

func (s *staged) commit() error {
	if _, err := os.Lstat(s.dest); err == nil {
		bak := s.tmp + ".bak"
		if err := os.Rename(s.dest, bak); err != nil {
			return err
		}
		s.backup = bak
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := replaceFile(s.tmp, s.dest); err != nil {
		return err
	}
	s.tmp = ""
	s.done = true
	return nil
}

// rollback: 逆序撤销已提交的替换，清理剩余临时文件。
func rollback(set []*staged) {
	for i := len(set) - 1; i >= 0; i-- {
		s := set[i]
		if s.done {
			_ = os.Remove(s.dest)
		}
		if s.backup != "" {
			_ = os.Rename(s.backup, s.dest)
		}
		if s.tmp != "" {
			_ = os.Remove(s.tmp)
		}
	}
}

// mapPath: Clean + Join + 越界校验。
func (w *FS) mapPath(id contract.ArtifactID) (string, error) {
	rel := filepath.Clean(string(id))
	if rel == "." || rel == "" {
		return "", contract.ErrPathInvalid
	}
	if filepath.IsAbs(rel) {
		return "", contract.ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", contract.ErrPathInvalid
	}
	if vol := filepath.VolumeName(rel); vol != "" {
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.root, rel), nil
}

func (w *FS) writeOverwrite(ctx context.Context, dest string, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	return bw.Flush()
}

// stage 将 r 写入 dest 同目录下的临时文件并 fsync，返回临时路径。
// 失败时临时文件已删除。
func (w *FS) stage(ctx context.Context, dest string, r io.Reader) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	// 目标权限：尽量与期望一致
	_ = os.Chmod(tmpPath, w.permF)

	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// readerWithCtx: 在每次 Read 前检查 ctx 是否已取消。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
