package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shortreel/internal/logging"
)

// CurrentLogName is the link the daemon points at its active run log.
const CurrentLogName = logging.CurrentLogName

// Options selects which log lines Tail returns.
type Options struct {
	// Offset is the byte position to resume from. A negative offset returns
	// the last Limit matching lines instead.
	Offset int64
	Limit  int
	// Follow waits up to Wait for new lines when none are available.
	Follow bool
	Wait   time.Duration
	// JobID keeps only lines tagged with this job.
	JobID string
}

// Result carries the lines read and the offset to resume from.
type Result struct {
	Lines  []string
	Offset int64
}

// CurrentLogPath returns the active daemon log under logDir.
func CurrentLogPath(logDir string) string {
	return filepath.Join(logDir, CurrentLogName)
}

// Tail reads lines from the daemon log at path.
func Tail(ctx context.Context, path string, opts Options) (Result, error) {
	result := Result{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}
	match := jobFilter(opts.JobID)

	if opts.Offset < 0 {
		lines, offset, err := lastLines(path, opts.Limit, match)
		if err != nil {
			return result, err
		}
		if opts.Follow && len(lines) == 0 {
			return waitForLines(ctx, path, offset, opts.Wait, match)
		}
		return Result{Lines: lines, Offset: offset}, nil
	}

	offset := opts.Offset
	if offset > info.Size() {
		// The file was replaced by a shorter one; start over.
		offset = 0
	}
	lines, next, err := readForward(path, offset, match)
	if err != nil {
		return result, err
	}
	if opts.Follow && len(lines) == 0 {
		return waitForLines(ctx, path, next, opts.Wait, match)
	}
	return Result{Lines: lines, Offset: next}, nil
}

func jobFilter(jobID string) func(string) bool {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return func(string) bool { return true }
	}
	jsonNeedle := fmt.Sprintf("%q:%q", logging.FieldJobID, jobID)
	consoleNeedle := " " + logging.FieldJobID + "=" + jobID
	return func(line string) bool {
		return strings.Contains(line, jsonNeedle) || strings.Contains(line, consoleNeedle)
	}
}

func openAt(path string, offset int64) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek log file: %w", err)
	}
	return file, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

// lastLines keeps a ring of the most recent matching lines.
func lastLines(path string, limit int, match func(string) bool) ([]string, int64, error) {
	file, err := openAt(path, 0)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	scanner := newScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !match(line) {
			continue
		}
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]string, 0, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := 0; i < count; i++ {
		lines = append(lines, ring[(start+i)%limit])
	}
	return lines, end, nil
}

// readForward returns complete lines after offset. A trailing partial line
// is left for the next call.
func readForward(path string, offset int64, match func(string) bool) ([]string, int64, error) {
	file, err := openAt(path, offset)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if match(line) {
			lines = append(lines, line)
		}
	}
	return lines, offset, nil
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration, match func(string) bool) (Result, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		lines, next, err := readForward(path, offset, match)
		if err != nil {
			return Result{Offset: offset}, err
		}
		offset = next
		if len(lines) > 0 || !time.Now().Before(deadline) {
			return Result{Lines: lines, Offset: offset}, nil
		}
		select {
		case <-ctx.Done():
			return Result{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}
