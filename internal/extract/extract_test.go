package extract

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcurkit/pkg/rcur"
)

var sample = rcur.Images{
	[]byte("\x89PNG\r\n\x1a\nfar"),
	[]byte("\x89PNG\r\n\x1a\narrow"),
	{},
}

func writeContainer(t *testing.T, b []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "theme.rcur")
	require.NoError(t, os.WriteFile(p, b, 0o644))
	return p
}

func TestExtract(t *testing.T) {
	p := writeContainer(t, rcur.Encode(sample))
	out := filepath.Join(t.TempDir(), "a", "b")
	res, err := New(Options{}).Extract(context.Background(), p, out)
	require.NoError(t, err)
	assert.NoError(t, res.Warning)
	assert.Equal(t, rcur.Version, res.Version)

	want := map[string][]byte{"ArrowFar.png": sample[0], "Arrow.png": sample[1], "IBeam.png": sample[2]}
	for name, data := range want {
		b, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Equal(t, string(data), string(b), name)
	}
	assert.Equal(t, [3]string{"ArrowFar.png", "Arrow.png", "IBeam.png"}, res.Files)
	entries, _ := os.ReadDir(out)
	assert.Len(t, entries, 3)
}

func TestExtractUnknownVersion(t *testing.T) {
	b := rcur.Encode(sample)
	binary.LittleEndian.PutUint32(b[5:], 3)
	p := writeContainer(t, b)
	out := t.TempDir()
	res, err := New(Options{}).Extract(context.Background(), p, out)
	require.NoError(t, err)
	var vm *rcur.VersionMismatch
	require.True(t, errors.As(res.Warning, &vm))
	assert.Equal(t, uint32(3), vm.Found)
	got, err := os.ReadFile(filepath.Join(out, "Arrow.png"))
	require.NoError(t, err)
	assert.Equal(t, sample[1], got)
}

func TestExtractDecodeFailureWritesNothing(t *testing.T) {
	full := rcur.Encode(sample)
	cases := map[string]struct {
		data []byte
		kind error
	}{
		"magic":     {append([]byte("XCUR\x00"), full[5:]...), rcur.ErrInvalidMagic},
		"truncated": {full[:12], rcur.ErrTruncatedHeader},
		"length":    {full[:len(full)-3], rcur.ErrCorruptedLength},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			p := writeContainer(t, c.data)
			out := filepath.Join(t.TempDir(), "out")
			_, err := New(Options{}).Extract(context.Background(), p, out)
			require.ErrorIs(t, err, c.kind)
			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "output dir must not be created")
			// 容器文件不被修改
			b, _ := os.ReadFile(p)
			assert.Equal(t, c.data, b)
		})
	}
}

func TestExtractMissing(t *testing.T) {
	_, err := New(Options{}).Extract(context.Background(), filepath.Join(t.TempDir(), "no.rcur"), t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractOverwritesExisting(t *testing.T) {
	p := writeContainer(t, rcur.Encode(sample))
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "Arrow.png"), []byte("stale"), 0o644))
	_, err := New(Options{}).Extract(context.Background(), p, out)
	require.NoError(t, err)
	b, _ := os.ReadFile(filepath.Join(out, "Arrow.png"))
	assert.Equal(t, sample[1], b)
}
