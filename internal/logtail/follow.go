package logtail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"newsctl/internal/logger"
)

// Follow streams lines appended to path after the call, until ctx is done.
// The file may not exist yet; it is picked up when created. A truncated or
// recreated file is read again from the start.
func Follow(ctx context.Context, path string) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory so creation and rotation are seen too.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	f := &follower{path: filepath.Clean(path)}
	if info, err := os.Stat(path); err == nil {
		f.offset = info.Size()
	}

	ch := make(chan string, 100)
	go func() {
		defer close(ch)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != f.path {
					continue
				}
				if ev.Has(fsnotify.Create) {
					f.reset()
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				lines, err := f.read()
				if err != nil {
					logger.Debug("log follow read failed", "path", f.path, "error", err)
					continue
				}
				for _, line := range lines {
					select {
					case <-ctx.Done():
						return
					case ch <- line:
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Debug("log watcher error", "path", f.path, "error", err)
			}
		}
	}()

	return ch, nil
}

type follower struct {
	path    string
	offset  int64
	partial []byte
}

func (f *follower) reset() {
	f.offset = 0
	f.partial = nil
}

// read returns the complete lines appended since the last read.
func (f *follower) read() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < f.offset {
		f.reset()
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	f.offset += int64(len(data))

	data = append(f.partial, data...)
	parts := bytes.Split(data, []byte{'\n'})
	f.partial = append([]byte(nil), parts[len(parts)-1]...)

	lines := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		lines = append(lines, string(bytes.TrimSuffix(p, []byte{'\r'})))
	}
	return lines, nil
}
