package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// Result holds matching lines in file order and the offset after the last
// byte read.
type Result struct {
	Lines  []string
	Offset int64
}

// Tail returns up to limit of the most recent lines matching filter. A
// missing file yields an empty result. limit <= 0 returns every match.
func Tail(path string, limit int, filter Filter) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("log path %q is a directory", path)
	}

	var lines []string
	ring := newRing(limit)
	offset, err := scanLines(file, func(line string) {
		if !filter.Match(line) {
			return
		}
		if ring != nil {
			ring.push(line)
			return
		}
		lines = append(lines, line)
	})
	if err != nil {
		return Result{}, err
	}
	if ring != nil {
		lines = ring.ordered()
	}
	return Result{Lines: lines, Offset: offset}, nil
}

// Follow polls path from offset and hands each batch of new matching lines
// to emit until ctx is done. A file that shrinks (rotation) is read again
// from the start.
func Follow(ctx context.Context, path string, offset int64, filter Filter, emit func([]string)) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		lines, next, err := readFrom(path, offset, filter)
		if err != nil {
			return err
		}
		offset = next
		if len(lines) > 0 {
			emit(lines)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	read, err := scanLines(file, func(line string) {
		if filter.Match(line) {
			lines = append(lines, line)
		}
	})
	if err != nil {
		return nil, offset, err
	}
	return lines, offset + read, nil
}

// scanLines feeds complete lines to fn and returns the bytes consumed. A
// trailing partial line is left for the next read.
func scanLines(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			continue
		}
		fn(trimNewline(line))
	}
}

func trimNewline(line string) string {
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

type ring struct {
	items []string
	next  int
	count int
}

func newRing(limit int) *ring {
	if limit <= 0 {
		return nil
	}
	return &ring{items: make([]string, limit)}
}

func (r *ring) push(line string) {
	r.items[r.next] = line
	r.next = (r.next + 1) % len(r.items)
	if r.count < len(r.items) {
		r.count++
	}
}

func (r *ring) ordered() []string {
	out := make([]string, r.count)
	start := 0
	if r.count == len(r.items) {
		start = r.next
	}
	for i := range r.count {
		out[i] = r.items[(start+i)%len(r.items)]
	}
	return out
}
