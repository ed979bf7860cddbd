package logging

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileWriter appends log lines to a file and rotates it by size or age.
// Rotated files are gzipped and only the newest maxFiles are kept.
type FileWriter struct {
	mu          sync.Mutex
	path        string
	maxSize     int64
	maxAge      time.Duration
	maxFiles    int
	current     *os.File
	currentSize int64
	openedAt    time.Time
	now         func() time.Time
	wg          sync.WaitGroup
}

// NewFileWriter opens (or creates) path for appending.
func NewFileWriter(path string, maxSizeMB, maxFiles int) (*FileWriter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}
	fw := &FileWriter{
		path:     path,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxAge:   24 * time.Hour,
		maxFiles: maxFiles,
		now:      time.Now,
	}
	if err := fw.open(); err != nil {
		return nil, err
	}
	return fw, nil
}

func (fw *FileWriter) open() error {
	f, err := os.OpenFile(fw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	fw.current = f
	fw.currentSize = info.Size()
	fw.openedAt = fw.now()
	return nil
}

// Write implements io.Writer.
func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.current == nil {
		return 0, os.ErrClosed
	}
	if fw.currentSize > 0 && (fw.currentSize+int64(len(p)) > fw.maxSize || fw.now().Sub(fw.openedAt) > fw.maxAge) {
		if err := fw.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := fw.current.Write(p)
	fw.currentSize += int64(n)
	return n, err
}

// Sync flushes the current file to disk.
func (fw *FileWriter) Sync() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.current == nil {
		return nil
	}
	return fw.current.Sync()
}

func (fw *FileWriter) rotate() error {
	if err := fw.current.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	rotated := fmt.Sprintf("%s.%s", fw.path, fw.now().Format("20060102-150405.000000000"))
	if err := os.Rename(fw.path, rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}
	fw.wg.Add(1)
	go func() {
		defer fw.wg.Done()
		compressFile(rotated)
		fw.prune()
	}()
	return fw.open()
}

func compressFile(path string) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return
	}
	gz := gzip.NewWriter(out)
	_, copyErr := io.Copy(gz, in)
	closeErr := gz.Close()
	out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(path + ".gz")
		return
	}
	os.Remove(path)
}

func (fw *FileWriter) prune() {
	matches, err := filepath.Glob(fw.path + ".*.gz")
	if err != nil || len(matches) <= fw.maxFiles {
		return
	}
	// Rotated names embed a sortable timestamp, oldest first.
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-fw.maxFiles] {
		os.Remove(path)
	}
}

// Close waits for pending compression and closes the current file.
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	f := fw.current
	fw.current = nil
	fw.mu.Unlock()
	fw.wg.Wait()
	if f == nil {
		return nil
	}
	return f.Close()
}

// ReadRecent returns up to n of the newest entries in the log file at path.
func ReadRecent(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
