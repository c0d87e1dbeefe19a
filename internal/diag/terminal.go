package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Terminal: 面向调用方的人类可读诊断（非日志）。
// - 成功行写 out（stdout），告警/失败写 errOut（stderr）；
// - errOut 为 TTY 且未设置 NO_COLOR/CI 时着色；
// - 并发安全；写失败后进入禁用态为 no-op。
type Terminal struct {
	out     io.Writer
	errOut  io.Writer
	enabled bool

	warnC *color.Color
	failC *color.Color
	boldC *color.Color

	ok     int
	failed int
	bytes  uint64
	start  time.Time

	mu sync.Mutex
}

// NewTerminal 构造终端提示器；nil writer 使用 stdout/stderr。
func NewTerminal(out, errOut io.Writer) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	t := &Terminal{
		out:     out,
		errOut:  errOut,
		enabled: true,
		warnC:   color.New(color.FgYellow),
		failC:   color.New(color.FgRed),
		boldC:   color.New(color.Bold),
		start:   time.Now(),
	}
	t.SetColor(colorAllowed(errOut))
	return t
}

// colorAllowed: CI / NO_COLOR 视为禁用；否则仅字符设备（TTY）着色。
func colorAllowed(w io.Writer) bool {
	if os.Getenv("CI") != "" || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SetColor 显式开关着色。
func (t *Terminal) SetColor(on bool) {
	for _, c := range []*color.Color{t.warnC, t.failC, t.boldC} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Success 输出单文件成功行，并计入汇总。
func (t *Terminal) Success(line string, size int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ok++
	if size > 0 {
		t.bytes += uint64(size)
	}
	t.println(t.out, nil, line)
}

// Block 原样输出多行文本（stdout），按一次成功计入汇总。
func (t *Terminal) Block(text string, size int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ok++
	if size > 0 {
		t.bytes += uint64(size)
	}
	if !t.enabled {
		return
	}
	if _, err := io.WriteString(t.out, text); err != nil {
		t.enabled = false
	}
}

// Warn 输出非致命告警。
func (t *Terminal) Warn(line string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.println(t.errOut, t.warnC, "Warning: "+line)
}

// Fail 输出单文件失败行，并计入汇总。
func (t *Terminal) Fail(line string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
	t.println(t.errOut, t.failC, line)
}

// Info 输出普通提示（stdout）。
func (t *Terminal) Info(line string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.println(t.out, nil, line)
}

// Error 输出调用级错误（stderr，不计入文件汇总）。
func (t *Terminal) Error(line string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.println(t.errOut, t.failC, line)
}

// Counts 返回成功/失败文件数。
func (t *Terminal) Counts() (ok, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ok, t.failed
}

// Summary 在处理多于一个文件时输出汇总行（stderr）。
func (t *Terminal) Summary() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ok+t.failed < 2 {
		return
	}
	t.println(t.errOut, t.boldC, fmt.Sprintf("%d succeeded, %d failed | %s | %s",
		t.ok, t.failed, humanize.Bytes(t.bytes), formatDur(time.Since(t.start))))
}

func (t *Terminal) println(w io.Writer, c *color.Color, s string) {
	if !t.enabled {
		return
	}
	s = safe(s)
	var err error
	if c != nil {
		_, err = c.Fprintln(w, s)
	} else {
		_, err = io.WriteString(w, s+"\n")
	}
	if err != nil {
		// 写失败即禁用
		t.enabled = false
	}
}

func safe(s string) string {
	// 避免换行等控制字符污染终端
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms <= 0 {
			ms = 0
		}
		return fmt.Sprintf("%dms", ms)
	}
	// 秒，保留 1 位小数
	return fmt.Sprintf("%.1fs", float64(d.Milliseconds())/1000.0)
}
