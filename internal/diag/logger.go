package diag

import (
	"io"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger: 结构化事件日志（每事件一行 JSON）。
// 字段：ts, level, corr_id, comp, stage(start|finish|warn|error), code, dur_ms, file_id, msg。
type Logger struct {
	base log.Logger
	sink io.Closer
}

// NewLogger 按 level 初始化；dir 非空时写入 dir 下的轮转文件（10 MiB，保留 5 个），为空时丢弃全部事件。
func NewLogger(corrID, lvl, dir string) *Logger {
	if strings.TrimSpace(dir) == "" {
		return NewLoggerTo(io.Discard, corrID, lvl)
	}
	sink := NewRotatingFile(dir, 0, 0)
	l := NewLoggerTo(sink, corrID, lvl)
	l.sink = sink
	return l
}

// NewLoggerTo 将事件写入任意 io.Writer（测试或 stderr 调试）。
func NewLoggerTo(w io.Writer, corrID, lvl string) *Logger {
	base := log.NewJSONLogger(log.NewSyncWriter(w))
	base = level.NewFilter(base, levelOption(lvl))
	base = log.With(base, "ts", log.DefaultTimestampUTC, "corr_id", corrID)
	return &Logger{base: base}
}

func levelOption(s string) level.Option {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// ValidLevel 判断日志级别名是否合法（空值视为默认 info）。
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// Close 关闭文件 sink（若有）。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg, fileID string) *Timer {
	if l == nil {
		return nil
	}
	_ = level.Info(l.base).Log("comp", comp, "stage", "start", "file_id", fileID, "msg", msg)
	return &Timer{l: l, comp: comp, fileID: fileID, t0: time.Now()}
}

// Warn 记录非致命告警（如版本不一致）。
func (l *Logger) Warn(comp, code, msg, fileID string) {
	if l == nil {
		return
	}
	_ = level.Warn(l.base).Log("comp", comp, "stage", "warn", "code", code, "file_id", fileID, "msg", msg)
}

// Error 记录 error 事件。durSince 为 nil 时不计时长。
func (l *Logger) Error(comp, code, msg, fileID string, durSince *time.Time) {
	if l == nil {
		return
	}
	kv := []interface{}{"comp", comp, "stage", "error", "code", code}
	if durSince != nil {
		kv = append(kv, "dur_ms", time.Since(*durSince).Milliseconds())
	}
	if fileID != "" {
		kv = append(kv, "file_id", fileID)
	}
	kv = append(kv, "msg", msg)
	_ = level.Error(l.base).Log(kv...)
}

// Debug 输出调试事件，附带任意键值。
func (l *Logger) Debug(comp, msg string, kv map[string]string) {
	if l == nil {
		return
	}
	args := []interface{}{"comp", comp, "stage", "start", "msg", msg}
	for k, v := range kv {
		args = append(args, k, v)
	}
	_ = level.Debug(l.base).Log(args...)
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l      *Logger
	comp   string
	fileID string
	t0     time.Time
}

// Finish 记录 finish 并返回耗时；可选 count。
func (t *Timer) Finish(msg string, count int64) time.Duration {
	if t == nil || t.l == nil {
		return 0
	}
	d := time.Since(t.t0)
	_ = level.Info(t.l.base).Log("comp", t.comp, "stage", "finish", "dur_ms", d.Milliseconds(),
		"count", count, "file_id", t.fileID, "msg", msg)
	return d
}
