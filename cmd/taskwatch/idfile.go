// Package main provides the --id-file task id source.
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// readTaskID returns the first non-blank, non-comment line of path.
// A missing file yields the empty id, which unbinds the tracker.
func readTaskID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}
	return "", scanner.Err()
}

// watchIDFile emits the task id in path now and again whenever it changes.
//
// The parent directory is watched rather than the file itself so that
// editors and tools that replace the file atomically are picked up. The
// channel is closed when ctx ends or the watcher fails.
//
// Parameters:
//   - ctx: Stops the watcher
//   - path: The file holding the task id
//   - logger: For watcher errors and unreadable contents
//
// Returns:
//   - <-chan string: Distinct task ids in change order
//   - error: If the watcher cannot be set up
func watchIDFile(ctx context.Context, path string, logger *log.Logger) (<-chan string, error) {
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer w.Close()

		last := "\x00"
		emit := func() bool {
			id, err := readTaskID(path)
			if err != nil {
				logger.Warn("Cannot read task id file", "path", path, "error", err)
				return true
			}
			if id != "" {
				if verr := validateTaskID(id); verr != nil {
					logger.Warn("Ignoring task id file contents", "path", path, "error", verr)
					return true
				}
			}
			if id == last {
				return true
			}
			last = id
			logger.Debug("Task id changed", "path", path, "task", id)
			select {
			case out <- id:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					if !emit() {
						return
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("File watcher error", "error", err)
			}
		}
	}()
	return out, nil
}
