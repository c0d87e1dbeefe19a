package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rcurkit/pkg/contract"
)

func touch(t *testing.T, p, data string) {
	t.Helper()
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

// TestScan 非递归、后缀不区分大小写、字典序
func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.rcur"), "b")
	touch(t, filepath.Join(dir, "A.RCUR"), "a")
	touch(t, filepath.Join(dir, "note.txt"), "n")
	sub := filepath.Join(dir, "sub.rcur")
	os.Mkdir(sub, 0o755)
	touch(t, filepath.Join(sub, "deep.rcur"), "d")

	got, err := New(nil).Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{filepath.Join(dir, "A.RCUR"), filepath.Join(dir, "b.rcur")}
	if len(got) != len(want) {
		t.Fatalf("scan got %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scan[%d]=%s want %s", i, got[i], want[i])
		}
	}
}

// TestScanSuffix 自定义后缀
func TestScanSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "x.cur"), "x")
	touch(t, filepath.Join(dir, "y.rcur"), "y")
	r := New(&Options{Suffix: ".CUR"})
	got, err := r.Scan(context.Background(), dir)
	if err != nil || len(got) != 1 || filepath.Base(got[0]) != "x.cur" {
		t.Fatalf("scan: %v %#v", err, got)
	}
	if r.Suffix() != ".cur" {
		t.Fatalf("suffix=%s", r.Suffix())
	}
}

// TestScanMissing 目录不存在归为调用错误
func TestScanMissing(t *testing.T) {
	_, err := New(nil).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, contract.ErrUsage) {
		t.Fatalf("expect usage error, got %v", err)
	}
	// 普通文件不是目录
	f := filepath.Join(t.TempDir(), "f.rcur")
	touch(t, f, "x")
	if _, err := New(nil).Scan(context.Background(), f); !errors.Is(err, contract.ErrUsage) {
		t.Fatalf("expect usage error for file, got %v", err)
	}
}

// TestScanEmpty 空目录返回空列表
func TestScanEmpty(t *testing.T) {
	got, err := New(nil).Scan(context.Background(), t.TempDir())
	if err != nil || len(got) != 0 {
		t.Fatalf("scan empty: %v %#v", err, got)
	}
}

// TestRead 整体读取
func TestRead(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.rcur")
	touch(t, p, "hello")
	b, err := New(nil).Read(context.Background(), p)
	if err != nil || string(b) != "hello" {
		t.Fatalf("read: %v %q", err, b)
	}
}

// TestReadErrors 缺失/目录/超限/取消
func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	r := New(nil)
	if _, err := r.Read(context.Background(), filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expect not exist, got %v", err)
	}
	if _, err := r.Read(context.Background(), dir); !errors.Is(err, contract.ErrNotRegular) {
		t.Fatalf("expect not regular, got %v", err)
	}
	p := filepath.Join(dir, "big.rcur")
	touch(t, p, "0123456789")
	if _, err := New(&Options{MaxBytes: 4}).Read(context.Background(), p); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expect too large, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Read(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("expect cancel, got %v", err)
	}
}
