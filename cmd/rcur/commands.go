package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rcurkit/internal/batch"
	cfgpkg "rcurkit/internal/config"
	"rcurkit/internal/convert"
	"rcurkit/internal/extract"
	"rcurkit/internal/inspect"
	"rcurkit/internal/pack"
	"rcurkit/pkg/rcur"
)

// convertCommand 原地将旧版 base64 文本 .rcur 转换为二进制容器。
type convertCommand struct {
	c      *cli
	files  []string
	folder string
}

func addConvertCommand(c *cli) (string, func(context.Context) int) {
	cmd := &convertCommand{c: c}
	cc := c.app.Command("convert", "Convert legacy base64 .rcur files to the binary format in place.")
	cc.Flag("folder", "Convert every matching file in this folder (non-recursive).").StringVar(&cmd.folder)
	cc.Arg("file", "Legacy .rcur files.").StringsVar(&cmd.files)
	return cc.FullCommand(), cmd.run
}

func (cmd *convertCommand) run(ctx context.Context) int {
	c := cmd.c
	if len(cmd.files) == 0 && cmd.folder == "" {
		c.app.Usage([]string{"convert"})
		return 0
	}
	if err := c.setup(); err != nil {
		return c.fail("convert", err)
	}
	start := time.Now()
	defer c.finish("convert", start)

	r := c.reader()
	items := fileItems(cmd.files, "")
	if cmd.folder != "" {
		files, err := c.scanFolder(ctx, r, cmd.folder)
		if err != nil {
			return c.fail("convert", err)
		}
		items = append(items, fileItems(files, "")...)
	}
	cv := convert.New(convert.Options{Reader: r, Atomic: c.cfg.AtomicWrites()})
	runner := c.runner("convert", "Conversion failed for '%s': %v")
	runner.CheckExists = true
	if _, err := runner.Run(ctx, items, func(ctx context.Context, it batch.Item) batch.Outcome {
		res, err := cv.Convert(ctx, it.Path)
		if err != nil {
			return batch.Outcome{Err: err}
		}
		return batch.Outcome{Line: "Converted: " + it.Path, Size: res.Bytes}
	}); err != nil {
		return c.fail("convert", err)
	}
	return 0
}

// extractCommand 将容器拆分为 ArrowFar.png / Arrow.png / IBeam.png。
type extractCommand struct {
	c         *cli
	files     []string
	folder    string
	outputDir string
}

func addExtractCommand(c *cli) (string, func(context.Context) int) {
	cmd := &extractCommand{c: c}
	cc := c.app.Command("extract", "Extract binary .rcur files into ArrowFar.png, Arrow.png and IBeam.png.")
	cc.Flag("folder", "Extract every matching file in this folder into a subfolder named after the file.").StringVar(&cmd.folder)
	cc.Flag("output-dir", "Base directory for extracted images.").Short('o').StringVar(&cmd.outputDir)
	cc.Arg("file", "A single .rcur file, extracted into the output directory.").StringsVar(&cmd.files)
	return cc.FullCommand(), cmd.run
}

func (cmd *extractCommand) run(ctx context.Context) int {
	c := cmd.c
	if len(cmd.files) > 1 {
		fmt.Fprintln(c.stderr, "Error: Only one .rcur file argument is allowed.")
		c.app.Usage([]string{"extract"})
		return 1
	}
	if len(cmd.files) == 0 && cmd.folder == "" {
		c.app.Usage([]string{"extract"})
		return 0
	}
	if err := c.setup(); err != nil {
		return c.fail("extract", err)
	}
	if s := strings.TrimSpace(cmd.outputDir); s != "" {
		c.cfg.OutputDir = s
	}
	start := time.Now()
	defer c.finish("extract", start)

	r := c.reader()
	base := c.cfg.OutputDir
	items := fileItems(cmd.files, base)

	// 单文件先于目录处理；目录不存在在单文件报告之后作为调用错误返回。
	var scanErr error
	if cmd.folder != "" {
		files, err := r.Scan(ctx, cmd.folder)
		if err != nil {
			scanErr = err
		}
		for _, f := range files {
			items = append(items, batch.Item{Path: f, OutDir: filepath.Join(base, filepath.Base(f))})
		}
	}

	ex := extract.New(extract.Options{
		Reader:   r,
		PermFile: permOf(c.cfg.Writer.PermFile),
		PermDir:  permOf(c.cfg.Writer.PermDir),
	})
	runner := c.runner("extract", "Extraction failed for '%s': %v")
	runner.CheckExists = true
	if _, err := runner.Run(ctx, items, func(ctx context.Context, it batch.Item) batch.Outcome {
		res, err := ex.Extract(ctx, it.Path, it.OutDir)
		if err != nil {
			return batch.Outcome{Err: err}
		}
		return batch.Outcome{
			Line:    fmt.Sprintf("Extracted: %s → %s", it.Path, it.OutDir),
			Size:    res.Bytes,
			Warning: res.Warning,
		}
	}); err != nil {
		return c.fail("extract", err)
	}
	if scanErr != nil {
		return c.fail("extract", scanErr)
	}
	if cmd.folder != "" && len(items) == len(cmd.files) {
		c.term.Info(fmt.Sprintf("No %s files found in folder: %s", r.Suffix(), cmd.folder))
	}
	return 0
}

// inspectCommand 只读输出容器的版本与各槽位信息。
type inspectCommand struct {
	c      *cli
	files  []string
	folder string
}

func addInspectCommand(c *cli) (string, func(context.Context) int) {
	cmd := &inspectCommand{c: c}
	cc := c.app.Command("inspect", "Print version, slot sizes and image dimensions of .rcur containers.")
	cc.Flag("folder", "Inspect every matching file in this folder.").StringVar(&cmd.folder)
	cc.Arg("file", "Binary .rcur files.").StringsVar(&cmd.files)
	return cc.FullCommand(), cmd.run
}

func (cmd *inspectCommand) run(ctx context.Context) int {
	c := cmd.c
	if len(cmd.files) == 0 && cmd.folder == "" {
		c.app.Usage([]string{"inspect"})
		return 0
	}
	if err := c.setup(); err != nil {
		return c.fail("inspect", err)
	}
	start := time.Now()
	defer c.finish("inspect", start)

	r := c.reader()
	items := fileItems(cmd.files, "")
	if cmd.folder != "" {
		files, err := c.scanFolder(ctx, r, cmd.folder)
		if err != nil {
			return c.fail("inspect", err)
		}
		items = append(items, fileItems(files, "")...)
	}
	runner := c.runner("inspect", "Inspection failed for '%s': %v")
	runner.CheckExists = true
	if _, err := runner.Run(ctx, items, func(ctx context.Context, it batch.Item) batch.Outcome {
		rep, err := inspect.Inspect(ctx, r, it.Path)
		if err != nil {
			return batch.Outcome{Err: err}
		}
		var b bytes.Buffer
		if _, err := rep.WriteTo(&b); err != nil {
			return batch.Outcome{Err: err}
		}
		return batch.Outcome{Block: b.String(), Warning: rep.Warning}
	}); err != nil {
		return c.fail("inspect", err)
	}
	return 0
}

// packCommand 由三个图像文件构建容器。
type packCommand struct {
	c   *cli
	in  pack.Inputs
	out string
}

func addPackCommand(c *cli) (string, func(context.Context) int) {
	cmd := &packCommand{c: c}
	cc := c.app.Command("pack", "Build a binary .rcur container from three image files.")
	cc.Flag("far", "Image for the far-arrow slot.").Required().StringVar(&cmd.in[rcur.SlotArrowFar])
	cc.Flag("arrow", "Image for the arrow slot.").Required().StringVar(&cmd.in[rcur.SlotArrow])
	cc.Flag("ibeam", "Image for the i-beam slot.").Required().StringVar(&cmd.in[rcur.SlotIBeam])
	cc.Arg("out", "Output .rcur file.").Required().StringVar(&cmd.out)
	return cc.FullCommand(), cmd.run
}

func (cmd *packCommand) run(ctx context.Context) int {
	c := cmd.c
	if err := c.setup(); err != nil {
		return c.fail("pack", err)
	}
	if err := cmd.in.Validate(); err != nil {
		return c.fail("pack", err)
	}
	start := time.Now()
	defer c.finish("pack", start)

	r := c.reader()
	runner := c.runner("pack", "Packing failed for '%s': %v")
	if _, err := runner.Run(ctx, []batch.Item{{Path: cmd.out}}, func(ctx context.Context, it batch.Item) batch.Outcome {
		n, err := pack.Pack(ctx, r, cmd.in, it.Path)
		if err != nil {
			return batch.Outcome{Err: err}
		}
		return batch.Outcome{Line: "Packed: " + it.Path, Size: n}
	}); err != nil {
		return c.fail("pack", err)
	}
	return 0
}

// initConfigCommand 在目录下生成 rcur.json 与 .env 模板（不覆盖）。
type initConfigCommand struct {
	c   *cli
	dir string
}

func addInitConfigCommand(c *cli) (string, func(context.Context) int) {
	cmd := &initConfigCommand{c: c}
	cc := c.app.Command("init-config", "Write default rcur.json and .env templates (existing files are kept).")
	cc.Arg("dir", "Target directory.").Default(".").StringVar(&cmd.dir)
	return cc.FullCommand(), cmd.run
}

func (cmd *initConfigCommand) run(context.Context) int {
	c := cmd.c
	cfgPath, created, err := cfgpkg.WriteTemplate(cmd.dir)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: writing %s: %v\n", cfgPath, err)
		return 1
	}
	report(c, cfgPath, created)
	envPath, created, err := cfgpkg.WriteDotEnvTemplate(cmd.dir)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: writing %s: %v\n", envPath, err)
		return 1
	}
	report(c, envPath, created)
	return 0
}

func report(c *cli, path string, created bool) {
	if created {
		fmt.Fprintf(c.stdout, "Created: %s\n", path)
		return
	}
	fmt.Fprintf(c.stdout, "Exists, skipped: %s\n", path)
}

// printConfigCommand 输出合并后的有效配置（JSON）。
type printConfigCommand struct{ c *cli }

func addPrintConfigCommand(c *cli) (string, func(context.Context) int) {
	cmd := &printConfigCommand{c: c}
	cc := c.app.Command("print-config", "Print the effective configuration as JSON.")
	return cc.FullCommand(), cmd.run
}

func (cmd *printConfigCommand) run(context.Context) int {
	c := cmd.c
	if err := c.setup(); err != nil {
		return c.fail("config", err)
	}
	defer c.logger.Close()
	if err := writeJSON(c.stdout, c.cfg); err != nil {
		return c.fail("config", err)
	}
	return 0
}

func (c *cli) runner(comp, failFormat string) *batch.Runner {
	return &batch.Runner{
		Comp:        comp,
		Concurrency: c.cfg.Concurrency,
		Logger:      c.logger,
		Term:        c.term,
		FailFormat:  failFormat,
	}
}

func fileItems(paths []string, outDir string) []batch.Item {
	items := make([]batch.Item, 0, len(paths))
	for _, p := range paths {
		items = append(items, batch.Item{Path: p, OutDir: outDir})
	}
	return items
}

func permOf(v uint32) os.FileMode { return os.FileMode(v) }
