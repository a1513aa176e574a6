// Package logtail reads the bot's append-only log files without ever
// writing to them.
package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Summary describes one log file at the moment it was inspected.
type Summary struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Size   int64  `json:"size"`
	Lines  int    `json:"lines"`
}

// Stat summarizes the file at path. A missing file is reported through
// Exists, not as an error. When the file exists but cannot be read, Exists
// and Size are still filled in and the error explains the line count.
func Stat(name, path string) (Summary, error) {
	s := Summary{Name: name, Path: path}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, err
	}
	s.Exists = true
	s.Size = info.Size()

	f, err := os.Open(path)
	if err != nil {
		return s, err
	}
	defer f.Close()

	s.Lines, err = countLines(f)
	if err != nil {
		return s, fmt.Errorf("failed to count lines in %s: %w", path, err)
	}
	return s, nil
}

// countLines counts newline-terminated lines plus a final partial line.
func countLines(r io.Reader) (int, error) {
	buf := make([]byte, 32*1024)
	count := 0
	var last byte = '\n'
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}

// tailChunk is how far back Tail reads per step when searching for lines.
const tailChunk = 8 * 1024

// Tail returns the last n lines of the file at path, oldest first.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// Read backwards until the window holds more than n newlines or the
	// whole file.
	size := info.Size()
	offset := size
	var window []byte
	newlines := 0
	for offset > 0 && newlines <= n {
		step := int64(tailChunk)
		if offset < step {
			step = offset
		}
		offset -= step
		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, offset); err != nil && err != io.EOF {
			return nil, err
		}
		newlines += bytes.Count(chunk, []byte{'\n'})
		window = append(chunk, window...)
	}

	return lastLines(window, n, offset > 0), nil
}

func lastLines(window []byte, n int, truncated bool) []string {
	if len(window) == 0 {
		return nil
	}
	parts := bytes.Split(bytes.TrimSuffix(window, []byte{'\n'}), []byte{'\n'})
	// The first line of a window that starts mid-file is partial.
	if truncated && len(parts) > 0 {
		parts = parts[1:]
	}
	if len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = string(bytes.TrimSuffix(p, []byte{'\r'}))
	}
	return lines
}
