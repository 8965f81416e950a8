package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/githubnext/yamlline/pkg/console"
	"github.com/githubnext/yamlline/pkg/constants"
	"github.com/githubnext/yamlline/pkg/linenum"
)

// Watch prints the lines table for target and prints it again whenever the
// file changes, until ctx is cancelled. target may be a directory, in which
// case every YAML file in it is watched.
func (r *Runner) Watch(ctx context.Context, target string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &linenum.FileError{Path: target, Err: err}
	}

	dir := abs
	matches := isYAMLFile
	if !info.IsDir() {
		dir = filepath.Dir(abs)
		matches = func(name string) bool { return name == abs }
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so saves that replace the file are seen.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	initial := []string{abs}
	if info.IsDir() {
		initial = yamlFilesIn(dir)
	}
	if len(initial) > 0 {
		r.redecode(initial)
	}
	fmt.Fprintln(r.Out, console.FormatInfoMessage(fmt.Sprintf("Watching for changes to %s...", console.ToRelativePath(target))))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher channel closed")
			}
			name := filepath.Clean(event.Name)
			if !matches(name) {
				continue
			}
			r.verbosef("Detected change: %s (%s)", name, event.Op.String())

			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, name)
				fmt.Fprintln(r.Out, console.FormatWarningMessage(fmt.Sprintf("%s was removed", console.ToRelativePath(name))))
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				pending[name] = struct{}{}
				if timer == nil {
					timer = time.NewTimer(constants.WatchDebounce)
				} else {
					timer.Reset(constants.WatchDebounce)
				}
				fire = timer.C
			}

		case <-fire:
			fire = nil
			files := make([]string, 0, len(pending))
			for name := range pending {
				files = append(files, name)
			}
			clear(pending)
			sort.Strings(files)
			if len(files) > 0 {
				r.redecode(files)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			r.verbosef("Watcher error: %v", err)
		}
	}
}

// redecode prints the lines tables; failures were already reported.
func (r *Runner) redecode(files []string) {
	fmt.Fprintln(r.Out, console.FormatProgressMessage(fmt.Sprintf("Decoding %d file(s)", len(files))))
	_ = r.Lines(files)
}

func isYAMLFile(name string) bool {
	return slices.Contains(constants.YAMLExtensions, strings.ToLower(filepath.Ext(name)))
}

func yamlFilesIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && isYAMLFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files
}
