package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	logPrefix   = "rcur-"
	logCurrent  = logPrefix + "current.txt"
	defaultSize = 10 * 1024 * 1024
	defaultKeep = 5
)

// RotatingFile 是按大小轮转的日志 sink（io.WriteCloser）。
// 当前文件为 rcur-current.txt；写入将超过 maxBytes 时改名为 rcur-<UTC 时间戳>.txt，
// 只保留最近 keep 个轮转文件。每次 Write 视为一条完整事件，不跨文件拆分。
type RotatingFile struct {
	dir      string
	maxBytes int64
	keep     int

	mu   sync.Mutex
	f    *os.File
	size int64
}

// NewRotatingFile 创建 sink；maxBytes/keep 非正数时使用默认（10 MiB / 5 个）。
// 目录与文件在首次写入时创建。
func NewRotatingFile(dir string, maxBytes int64, keep int) *RotatingFile {
	if maxBytes <= 0 {
		maxBytes = defaultSize
	}
	if keep <= 0 {
		keep = defaultKeep
	}
	return &RotatingFile{dir: dir, maxBytes: maxBytes, keep: keep}
}

func (w *RotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	// 空文件不轮转：单条超长事件直接写入
	if w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingFile) open() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(w.dir, logCurrent), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.size = f, st.Size()
	return nil
}

func (w *RotatingFile) rotate() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	// 纳秒精度，避免同秒覆盖；字典序即时间序
	name := logPrefix + time.Now().UTC().Format("20060102-150405.000000000") + ".txt"
	if err := os.Rename(filepath.Join(w.dir, logCurrent), filepath.Join(w.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate log: %w", err)
	}
	w.prune()
	return w.open()
}

// prune 删除超出 keep 的最旧轮转文件；失败忽略。
func (w *RotatingFile) prune() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	var rotated []string
	for _, e := range entries {
		n := e.Name()
		if n != logCurrent && strings.HasPrefix(n, logPrefix) && strings.HasSuffix(n, ".txt") {
			rotated = append(rotated, n)
		}
	}
	if len(rotated) <= w.keep {
		return
	}
	sort.Strings(rotated)
	for _, n := range rotated[:len(rotated)-w.keep] {
		_ = os.Remove(filepath.Join(w.dir, n))
	}
}

// Close 关闭当前文件；可重复调用。
func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
