package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	body := "# c\nexport RCUR_T_A=1\nRCUR_T_B = \"x\\ty\"\nRCUR_T_C='q'\nRCUR_T_KEEP=new\nnoeq\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RCUR_T_KEEP", "old")
	for _, k := range []string{"RCUR_T_A", "RCUR_T_B", "RCUR_T_C"} {
		k := k
		t.Cleanup(func() { os.Unsetenv(k) })
	}
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	cases := map[string]string{"RCUR_T_A": "1", "RCUR_T_B": "x\ty", "RCUR_T_C": "q", "RCUR_T_KEEP": "old"}
	for k, want := range cases {
		if got := os.Getenv(k); got != want {
			t.Errorf("%s=%q want %q", k, got, want)
		}
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}
}

func TestWriteDotEnvTemplate(t *testing.T) {
	dir := t.TempDir()
	p, created, err := WriteDotEnvTemplate(dir)
	if err != nil || !created {
		t.Fatalf("first write: created=%v err=%v", created, err)
	}
	b, _ := os.ReadFile(p)
	if !strings.Contains(string(b), "# RCUR_CONCURRENCY=") {
		t.Errorf("template missing key: %s", b)
	}
	if _, created, err = WriteDotEnvTemplate(dir); err != nil || created {
		t.Errorf("second write must skip: created=%v err=%v", created, err)
	}
}
