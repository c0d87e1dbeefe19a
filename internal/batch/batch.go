package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rcurkit/internal/diag"
	"rcurkit/pkg/contract"
)

// - 单文件独立：每个条目的失败只记录与报告，不取消其余条目。
// - 有界并发：Concurrency<=1 时顺序执行；否则由 errgroup.SetLimit 限流。
// - 顺序门闩：结果按输入顺序冲刷到终端，乱序完成的结果暂存。
// - 取消：仅 ctx 取消会停止派发新条目；已完成结果仍按序输出。

// Item 为一个待处理文件。
type Item struct {
	Path string
	// OutDir 仅对写出到目录的操作（提取）有意义。
	OutDir string
}

// Outcome 为单条目的处理结果。
type Outcome struct {
	// Line: 成功时输出到 stdout 的一行。
	Line string
	// Block: 多行报告（inspect），原样输出；非空时取代 Line。
	Block string
	// Warning: 非致命告警（不影响成功）。
	Warning error
	// Size: 写出字节数，计入汇总。
	Size int
	Err  error

	notFound bool
}

// Op 处理单个条目；必须可并发调用。
type Op func(ctx context.Context, it Item) Outcome

// Runner 驱动逐文件批处理。
type Runner struct {
	// Comp: 日志/指标中的组件名（convert/extract/inspect）。
	Comp        string
	Concurrency int
	Logger      *diag.Logger
	Term        *diag.Terminal
	// FailFormat: 失败行格式，参数依次为路径与错误。
	FailFormat string
	// CheckExists: 处理前确认输入存在；缺失时报告 "File not found" 并继续。
	CheckExists bool
}

// Stats 汇总一次运行。
type Stats struct {
	OK     int
	Failed int
	Bytes  int
}

// Run 处理全部条目并按输入顺序报告。仅在 ctx 被取消时返回错误。
func (r *Runner) Run(ctx context.Context, items []Item, op Op) (Stats, error) {
	var st Stats
	if len(items) == 0 {
		return st, nil
	}
	results := make([]*Outcome, len(items))
	next := 0
	var mu sync.Mutex
	flush := func(i int, o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = &o
		for next < len(items) && results[next] != nil {
			r.report(items[next], *results[next], &st)
			next++
		}
	}

	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range items {
		if gctx.Err() != nil {
			break
		}
		i, it := i, items[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			flush(i, r.one(gctx, it, op))
			return nil
		})
	}
	_ = g.Wait()

	// 取消后可能留下空洞；输出已完成的部分
	mu.Lock()
	for ; next < len(items); next++ {
		if results[next] != nil {
			r.report(items[next], *results[next], &st)
		}
	}
	mu.Unlock()
	return st, ctx.Err()
}

func (r *Runner) one(ctx context.Context, it Item, op Op) Outcome {
	t0 := time.Now()
	fileID := string(contract.NormalizeFileID(it.Path))
	timer := r.Logger.Start(r.Comp, "process", fileID)
	o := r.exec(ctx, it, op)
	if o.Err != nil {
		code := diag.Classify(o.Err)
		r.Logger.Error(r.Comp, string(code), o.Err.Error(), fileID, &t0)
		diag.IncOp(r.Comp, "error", "error")
		diag.IncError(r.Comp, code)
		return o
	}
	if o.Warning != nil {
		r.Logger.Warn(r.Comp, "version", o.Warning.Error(), fileID)
		diag.IncOp(r.Comp, "warn", "warn")
	}
	d := timer.Finish("done", int64(o.Size))
	diag.IncOp(r.Comp, "finish", "success")
	diag.ObserveDuration(r.Comp, "process", d.Milliseconds())
	return o
}

func (r *Runner) exec(ctx context.Context, it Item, op Op) Outcome {
	if r.CheckExists {
		if _, err := os.Stat(it.Path); errors.Is(err, os.ErrNotExist) {
			return Outcome{Err: err, notFound: true}
		}
	}
	return op(ctx, it)
}

func (r *Runner) report(it Item, o Outcome, st *Stats) {
	if o.Warning != nil {
		r.Term.Warn(fmt.Sprintf("%s: %v. Continuing anyway.", it.Path, o.Warning))
	}
	if o.Err != nil {
		st.Failed++
		if o.notFound {
			r.Term.Fail("File not found: " + it.Path)
			return
		}
		format := r.FailFormat
		if format == "" {
			format = "Processing failed for '%s': %v"
		}
		r.Term.Fail(fmt.Sprintf(format, it.Path, o.Err))
		return
	}
	st.OK++
	st.Bytes += o.Size
	if o.Block != "" {
		r.Term.Block(o.Block, o.Size)
		return
	}
	r.Term.Success(o.Line, o.Size)
}
