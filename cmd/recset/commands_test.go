package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maruel/recset/internal/recordset"
)

func testConfig() recordset.Config {
	cfg := recordset.DefaultConfig()
	cfg.CSVBOM = false
	cfg.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return cfg
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.json")
	if err := os.WriteFile(src, []byte(`[{"id": 1, "name": "a", "tags": ["x"]}, {"id": 2, "name": "b", "tags": ["y", "z"]}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out.csv")
	if err := convert(src, dst, testConfig()); err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	got, err := os.ReadFile(dst) //nolint:gosec // test path
	if err != nil {
		t.Fatal(err)
	}
	if want := "id,name,tags::0,tags::1\n1,a,x,\n2,b,y,z\n"; string(got) != want {
		t.Errorf("csv =\n%s\nwant\n%s", got, want)
	}
}

func TestConvertNestedKeys(t *testing.T) {
	want := "id,meta::camera-model,meta::iso\n1,x,200\n"
	sources := map[string]string{
		"in.csv":  want,
		"in.json": `[{"id": 1, "meta": {"camera-model": "x", "iso": 200}}]`,
	}
	for name, content := range sources {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, name)
			if err := os.WriteFile(src, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			dst := filepath.Join(dir, "out.csv")
			if err := convert(src, dst, testConfig()); err != nil {
				t.Fatalf("convert failed: %v", err)
			}
			got, err := os.ReadFile(dst) //nolint:gosec // test path
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != want {
				t.Errorf("csv =\n%s\nwant\n%s", got, want)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(src, []byte("id,name\n1,a\n2,a\n3,b\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := inspect(&buf, src, testConfig(), false); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"records:    3", "unique:     2", "duplicates: 1", "next id:    4", "columns:    id, name"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	buf.Reset()
	if err := inspect(&buf, src, testConfig(), true); err != nil {
		t.Fatalf("inspect -schema failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"properties"`) {
		t.Errorf("schema =\n%s", buf.String())
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	dst := filepath.Join(dir, "out.json")
	if err := os.WriteFile(src, []byte("id,name\n1,a\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watch(ctx, src, dst, testConfig()) }()

	waitFor := func(substr string) {
		t.Helper()
		for {
			if b, err := os.ReadFile(dst); err == nil && strings.Contains(string(b), substr) { //nolint:gosec // test path
				return
			}
			select {
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q", substr)
			case <-time.After(20 * time.Millisecond):
			}
		}
	}
	waitFor(`"name": "a"`)
	// Rewrite until the watcher is registered and picks up the change.
	for {
		if err := os.WriteFile(src, []byte("id,name\n1,b\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		b, _ := os.ReadFile(dst) //nolint:gosec // test path
		if strings.Contains(string(b), `"name": "b"`) {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for the conversion")
		case <-time.After(50 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("watch returned %v, want context.Canceled", err)
	}
}
