package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"

	cfgpkg "rcurkit/internal/config"
	"rcurkit/internal/diag"
	"rcurkit/pkg/contract"
	rfs "rcurkit/plugins/reader/filesystem"
)

var version = "dev"

// 子命令：convert / extract / inspect / pack / init-config / print-config。
// 全局旗标覆盖配置：--config, --jobs, --suffix, --log-level, --log-dir, --metrics-file, --[no-]atomic。
// 退出码：0 成功、无事可做或批内单文件失败；1 调用错误（参数、目录不存在、配置无效）。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// cli 持有一次调用的旗标与运行期依赖。
type cli struct {
	app    *kingpin.Application
	stdout io.Writer
	stderr io.Writer

	configPath  string
	jobs        int
	suffix      string
	logLevel    string
	logDir      string
	metricsFile string
	maxBytes    int64
	atomic      bool
	atomicSet   bool

	cfg    cfgpkg.Config
	corrID string
	logger *diag.Logger
	term   *diag.Terminal
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr, corrID: genCorrID()}
	app := kingpin.New("rcur", "Convert, extract, inspect and pack RCUR cursor containers.")
	app.Version(version)
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)
	exited := -1
	app.Terminate(func(code int) { exited = code })
	c.app = app

	app.Flag("config", "Path to a JSON config file (default: $RCUR_CONFIG_FILE, then ./rcur.json if present).").StringVar(&c.configPath)
	app.Flag("jobs", "Number of files processed in parallel.").Short('j').IntVar(&c.jobs)
	app.Flag("suffix", "File suffix matched by --folder scans.").StringVar(&c.suffix)
	app.Flag("log-level", "Event log level (debug|info|warn|error).").StringVar(&c.logLevel)
	app.Flag("log-dir", "Directory for the rotating JSON event log; empty disables it.").StringVar(&c.logDir)
	app.Flag("metrics-file", "Write Prometheus text metrics to this file on exit.").StringVar(&c.metricsFile)
	app.Flag("max-bytes", "Reject input files larger than this many bytes (0 = unlimited).").Int64Var(&c.maxBytes)
	app.Flag("atomic", "Replace converted files via temp file + rename.").IsSetByUser(&c.atomicSet).BoolVar(&c.atomic)

	cmds := map[string]func(context.Context) int{}
	for _, add := range []func(*cli) (string, func(context.Context) int){
		addConvertCommand, addExtractCommand, addInspectCommand, addPackCommand,
		addInitConfigCommand, addPrintConfigCommand,
	} {
		name, fn := add(c)
		cmds[name] = fn
	}

	if len(args) == 0 {
		app.Usage(nil)
		return 0
	}
	selected, err := app.Parse(args)
	if exited >= 0 {
		// --help / --version
		return exited
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		// 仅按已识别的子命令输出用法；原参数会被重新解析并再次报错
		var usage []string
		if selected != "" {
			usage = []string{selected}
		}
		app.Usage(usage)
		return 1
	}
	fn, ok := cmds[selected]
	if !ok {
		app.Usage(nil)
		return 1
	}
	return fn(ctx)
}

// setup 合并配置并初始化日志/终端。优先级：CLI > ENV > JSON > 默认。
func (c *cli) setup() error {
	_ = cfgpkg.LoadDotEnv(cfgpkg.DotEnvName)
	cfg := cfgpkg.Defaults()

	path := strings.TrimSpace(c.configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE"))
	}
	if path == "" {
		if st, err := os.Stat(cfgpkg.FileName); err == nil && st.Mode().IsRegular() {
			path = cfgpkg.FileName
		}
	}
	if path != "" {
		fileCfg, err := cfgpkg.LoadJSON(path, nil)
		if err != nil {
			return fmt.Errorf("%w: config %s: %v", contract.ErrUsage, path, err)
		}
		cfg = cfgpkg.Merge(cfg, fileCfg)
	}
	envCfg, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return fmt.Errorf("%w: environment: %v", contract.ErrUsage, err)
	}
	cfg = cfgpkg.Merge(cfg, envCfg)
	cfg = cfgpkg.Merge(cfg, c.flagOverlay())
	if err := cfgpkg.Validate(cfg); err != nil {
		return fmt.Errorf("%w: %v", contract.ErrUsage, err)
	}
	c.cfg = cfg
	c.logger = diag.NewLogger(c.corrID, cfg.Logging.Level, cfg.Logging.Dir)
	c.term = diag.NewTerminal(c.stdout, c.stderr)
	return nil
}

func (c *cli) flagOverlay() cfgpkg.Config {
	over := cfgpkg.Config{
		Concurrency:  c.jobs,
		Suffix:       c.suffix,
		MaxFileBytes: c.maxBytes,
		MetricsFile:  c.metricsFile,
		Logging:      cfgpkg.Logging{Level: c.logLevel, Dir: c.logDir},
	}
	if c.atomicSet {
		v := c.atomic
		over.Writer.Atomic = &v
	}
	return over
}

// finish 输出汇总、写出指标并关闭日志。
func (c *cli) finish(comp string, start time.Time) {
	c.term.Summary()
	ok, failed := c.term.Counts()
	c.logger.Debug(comp, "run finished", map[string]string{
		"ok":     fmt.Sprint(ok),
		"failed": fmt.Sprint(failed),
		"dur_ms": fmt.Sprint(time.Since(start).Milliseconds()),
	})
	if p := c.cfg.MetricsFile; p != "" {
		if err := diag.WriteMetrics(p); err != nil {
			c.term.Warn(fmt.Sprintf("metrics not written to %s: %v", p, err))
		}
	}
	_ = c.logger.Close()
}

// fail 报告调用级错误并返回退出码 1。
func (c *cli) fail(comp string, err error) int {
	code := diag.Classify(err)
	c.logger.Error(comp, string(code), err.Error(), "", nil)
	diag.IncError(comp, code)
	msg := strings.TrimPrefix(err.Error(), contract.ErrUsage.Error()+": ")
	if c.term != nil {
		c.term.Error(msg)
	} else {
		fmt.Fprintln(c.stderr, msg)
	}
	return 1
}

func (c *cli) reader() *rfs.FileSystem {
	return rfs.New(&rfs.Options{Suffix: c.cfg.Suffix, MaxBytes: c.cfg.MaxFileBytes})
}

// scanFolder 列出目录中的容器；目录为空时输出提示并返回 (nil, nil)。
func (c *cli) scanFolder(ctx context.Context, r *rfs.FileSystem, dir string) ([]string, error) {
	files, err := r.Scan(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		c.term.Info(fmt.Sprintf("No %s files found in folder: %s", r.Suffix(), dir))
	}
	return files, nil
}

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
