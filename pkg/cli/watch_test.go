package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, s string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), s) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %q, output:\n%s", s, buf.String())
}

func startWatch(t *testing.T, target string) (*syncBuffer, func()) {
	t.Helper()
	r, _, _ := newTestRunner(t, Config{})
	buf := &syncBuffer{}
	r.Out, r.Err = buf, buf

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, target)
	}()

	stop := func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Watch returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Watch did not stop after cancel")
		}
	}
	return buf, stop
}

func TestWatchFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "service.yaml", "name: demo\n")

	buf, stop := startWatch(t, path)
	defer stop()

	waitFor(t, buf, "Watching for changes")
	if !strings.Contains(buf.String(), `"demo"`) {
		t.Errorf("Expected the initial table, got:\n%s", buf.String())
	}

	if err := os.WriteFile(path, []byte("name: demo\nimage: nginx\n"), 0644); err != nil {
		t.Fatalf("Failed to update file: %v", err)
	}
	waitFor(t, buf, `"nginx"`)
}

func TestWatchReportsDecodeErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "service.yaml", "a: 1\n")

	buf, stop := startWatch(t, path)
	defer stop()

	waitFor(t, buf, "Watching for changes")
	if err := os.WriteFile(path, []byte("a: 1\na: 2\n"), 0644); err != nil {
		t.Fatalf("Failed to update file: %v", err)
	}
	waitFor(t, buf, "already defined at line 1")
}

func TestWatchDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "first: 1\n")
	writeFile(t, dir, "notes.txt", "ignored\n")

	buf, stop := startWatch(t, dir)
	defer stop()

	waitFor(t, buf, "Watching for changes")
	if !strings.Contains(buf.String(), `"first"`) {
		t.Errorf("Expected the initial table for a.yaml, got:\n%s", buf.String())
	}

	writeFile(t, dir, "b.yml", "second: 2\n")
	waitFor(t, buf, `"second"`)
	if strings.Contains(buf.String(), "ignored") {
		t.Errorf("Expected non-YAML files to be skipped, got:\n%s", buf.String())
	}
}

func TestWatchMissingTarget(t *testing.T) {
	r, _, _ := newTestRunner(t, Config{})
	if err := r.Watch(context.Background(), t.TempDir()+"/none.yaml"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestIsYAMLFile(t *testing.T) {
	tests := map[string]bool{
		"a.yaml":           true,
		"b.yml":            true,
		"C.YAML":           true,
		"notes.txt":        false,
		"yaml":             false,
		"archive.yaml.bak": false,
	}
	for name, expected := range tests {
		if got := isYAMLFile(name); got != expected {
			t.Errorf("isYAMLFile(%q) = %v, expected %v", name, got, expected)
		}
	}
}
