package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcurkit/pkg/rcur"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func legacy(parts ...string) []byte {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(base64.StdEncoding.EncodeToString([]byte(p)) + "\r\n")
	}
	return []byte(b.String())
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestNoArgsPrintsUsage(t *testing.T) {
	code, out, _ := runCLI(t)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "convert")
	assert.Contains(t, out, "extract")
}

func TestSubcommandWithoutWorkIsNoop(t *testing.T) {
	for _, cmd := range []string{"convert", "extract", "inspect"} {
		code, out, _ := runCLI(t, cmd)
		assert.Equal(t, 0, code, cmd)
		assert.Contains(t, out, cmd, cmd)
	}
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing folder value", []string{"convert", "--folder"}, "--folder"},
		{"folder not found", []string{"convert", "--folder", filepath.Join(dir, "nope")}, "Folder not found: "},
		{"extract folder not found", []string{"extract", "--folder", filepath.Join(dir, "nope")}, "Folder not found: "},
		{"two extract files", []string{"extract", "a.rcur", "b.rcur"}, "Only one .rcur file argument is allowed."},
		{"unknown flag", []string{"convert", "--bogus"}, "bogus"},
		{"bad jobs", []string{"--jobs=-2", "convert", "x.rcur"}, "concurrency"},
		{"bad level", []string{"--log-level", "loud", "convert", "x.rcur"}, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tc.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tc.msg)
		})
	}
}

func TestConvertFilesContinuesPastMissing(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "good.rcur"), legacy("a", "b", "c"))
	bad := writeFile(t, filepath.Join(dir, "bad.rcur"), []byte("QUJD\n!!!!\nQUJD\n"))
	missing := filepath.Join(dir, "missing.rcur")

	code, out, errOut := runCLI(t, "convert", missing, bad, good)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Converted: "+good)
	assert.Contains(t, errOut, "File not found: "+missing)
	assert.Contains(t, errOut, "Conversion failed for '"+bad+"': line 2 is not valid base64")
	assert.Contains(t, errOut, "1 succeeded, 2 failed")

	b, err := os.ReadFile(good)
	require.NoError(t, err)
	assert.True(t, rcur.IsContainer(b))
	b, err = os.ReadFile(bad)
	require.NoError(t, err)
	assert.Equal(t, "QUJD\n!!!!\nQUJD\n", string(b))
}

func TestConvertFolder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.rcur", "B.RCUR", "c.rcur"} {
		writeFile(t, filepath.Join(dir, n), legacy("x", "y", "z"))
	}
	writeFile(t, filepath.Join(dir, "skip.txt"), legacy("x", "y", "z"))
	writeFile(t, filepath.Join(dir, "sub", "deep.rcur"), legacy("x", "y", "z"))

	code, out, _ := runCLI(t, "--jobs", "2", "convert", "--folder", dir)
	assert.Equal(t, 0, code)
	assert.Equal(t, 3, strings.Count(out, "Converted: "))
	// 输出按字典序
	assert.Less(t, strings.Index(out, "B.RCUR"), strings.Index(out, "a.rcur"))

	b, _ := os.ReadFile(filepath.Join(dir, "skip.txt"))
	assert.False(t, rcur.IsContainer(b))
	b, _ = os.ReadFile(filepath.Join(dir, "sub", "deep.rcur"))
	assert.False(t, rcur.IsContainer(b))

	// 再次转换：已是二进制，文件不变
	code, _, errOut := runCLI(t, "convert", "--folder", dir)
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut, "already in binary RCUR format")
}

func TestEmptyFolder(t *testing.T) {
	dir := t.TempDir()
	code, out, _ := runCLI(t, "convert", "--folder", dir)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "No .rcur files found in folder: "+dir)

	code, out, _ = runCLI(t, "extract", "--folder", dir)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "No .rcur files found in folder: "+dir)
}

func TestExtractSingleFile(t *testing.T) {
	dir := t.TempDir()
	data := rcur.Encode(rcur.Images{[]byte("far"), []byte("arrow"), []byte("beam")})
	binary.LittleEndian.PutUint32(data[5:], 3)
	src := writeFile(t, filepath.Join(dir, "v3.rcur"), data)
	outDir := filepath.Join(dir, "out", "nested")

	code, out, errOut := runCLI(t, "extract", "-o", outDir, src)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Extracted: "+src)
	assert.Contains(t, errOut, "file version is 3, but expected 2")
	for name, want := range map[string]string{"ArrowFar.png": "far", "Arrow.png": "arrow", "IBeam.png": "beam"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Equal(t, want, string(b))
	}
}

func TestExtractFolderAndFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	base := filepath.Join(dir, "out")
	good := rcur.Encode(rcur.Images{[]byte("1"), []byte("2"), []byte("3")})
	writeFile(t, filepath.Join(in, "one.rcur"), good)
	writeFile(t, filepath.Join(in, "two.rcur"), good[:len(good)-1])
	writeFile(t, filepath.Join(in, "three.rcur"), good)
	single := writeFile(t, filepath.Join(dir, "single.rcur"), good)

	code, out, errOut := runCLI(t, "--jobs", "3", "extract", single, "--folder", in, "--output-dir", base)
	assert.Equal(t, 0, code)
	assert.Equal(t, 3, strings.Count(out, "Extracted: "))
	assert.Less(t, strings.Index(out, single), strings.Index(out, "one.rcur"))
	assert.Contains(t, errOut, "Extraction failed for '"+filepath.Join(in, "two.rcur")+"'")
	assert.Contains(t, errOut, "short by 1")

	_, err := os.Stat(filepath.Join(base, "ArrowFar.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "one.rcur", "IBeam.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "two.rcur"))
	assert.True(t, os.IsNotExist(err))
}

func TestPackInspectExtract(t *testing.T) {
	dir := t.TempDir()
	far := writeFile(t, filepath.Join(dir, "far.png"), []byte("F"))
	arrow := writeFile(t, filepath.Join(dir, "arrow.png"), []byte("AA"))
	ibeam := writeFile(t, filepath.Join(dir, "ibeam.png"), []byte("III"))
	out := filepath.Join(dir, "theme.rcur")

	code, stdout, _ := runCLI(t, "pack", "--far", far, "--arrow", arrow, "--ibeam", ibeam, out)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Packed: "+out)

	code, stdout, _ = runCLI(t, "inspect", out)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "version: 2")
	assert.Contains(t, stdout, "Arrow.png")

	code, _, _ = runCLI(t, "extract", "-o", filepath.Join(dir, "x"), out)
	require.Equal(t, 0, code)
	b, err := os.ReadFile(filepath.Join(dir, "x", "IBeam.png"))
	require.NoError(t, err)
	assert.Equal(t, "III", string(b))
}

func TestPackRequiresAllSlots(t *testing.T) {
	code, _, errOut := runCLI(t, "pack", "--far", "a", "out.rcur")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "required flag")

	out := filepath.Join(t.TempDir(), "out.rcur")
	code, _, errOut = runCLI(t, "pack", "--far", "missing.png", "--arrow", "", "--ibeam", "c.png", out)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "missing input for slot arrow")
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestParseErrorReportedOnce(t *testing.T) {
	code, _, errOut := runCLI(t, "convert", "--folder")
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, strings.Count(errOut, "expected argument for flag"))
}

func TestInitAndPrintConfig(t *testing.T) {
	dir := t.TempDir()
	code, out, _ := runCLI(t, "init-config", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Created: "+filepath.Join(dir, "rcur.json"))
	assert.Contains(t, out, "Created: "+filepath.Join(dir, ".env"))

	code, out, _ = runCLI(t, "init-config", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Exists, skipped: "+filepath.Join(dir, "rcur.json"))

	// 优先级：CLI > ENV > JSON
	cfgPath := writeFile(t, filepath.Join(dir, "c.json"), []byte(`{"concurrency": 2, "suffix": ".cur", "logging": {"level": "warn"}}`))
	t.Setenv("RCUR_CONCURRENCY", "5")
	code, out, _ = runCLI(t, "--config", cfgPath, "--log-level", "debug", "print-config")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"concurrency": 5`)
	assert.Contains(t, out, `"suffix": ".cur"`)
	assert.Contains(t, out, `"level": "debug"`)

	bad := writeFile(t, filepath.Join(dir, "bad.json"), []byte(`{"unknown": 1}`))
	code, _, errOut := runCLI(t, "--config", bad, "print-config")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown field")
}

func TestLogAndMetricsFiles(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "a.rcur"), legacy("a", "b", "c"))
	logDir := filepath.Join(dir, "logs")
	metrics := filepath.Join(dir, "rcur.prom")

	code, _, _ := runCLI(t, "--log-dir", logDir, "--metrics-file", metrics, "convert", src)
	require.Equal(t, 0, code)

	b, err := os.ReadFile(filepath.Join(logDir, "rcur-current.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"comp":"convert"`)
	assert.Contains(t, string(b), `"stage":"finish"`)

	b, err = os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(b), `rcur_op_total{comp="convert",result="success",stage="finish"}`)
}

func TestHelpAndVersion(t *testing.T) {
	code, out, _ := runCLI(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "pack")
}
