package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []Entry {
	t.Helper()
	var entries []Entry
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "line %q", scanner.Text())
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerWritesCategoryAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("symphony", INFO, &buf)

	logger.Info("config", "config fetched", map[string]any{"season": "Season 4"})
	logger.Error("submission", "submission failed", errors.New("Server error: 500"), nil)

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "config", entries[0].Category)
	assert.Equal(t, "symphony", entries[0].Site)
	assert.Equal(t, "Season 4", entries[0].Fields["season"])
	assert.NotEmpty(t, entries[0].Timestamp)

	assert.Equal(t, "ERROR", entries[1].Level)
	assert.Equal(t, "Server error: 500", entries[1].Error)
}

func TestLoggerDropsEntriesBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("", WARN, &buf)

	logger.Debug("general", "debug", nil)
	logger.Info("general", "info", nil)
	logger.Warn("general", "warn", nil)

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0].Message)
	assert.Equal(t, "general", entries[0].Category)
}

func TestNilAndNopLoggersAreSafe(t *testing.T) {
	var nilLogger *Logger
	nilLogger.Info("general", "ignored", nil)
	assert.Nil(t, nilLogger.WithRequestID("abc"))
	Nop().Warn("general", "ignored", nil)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestHTTPLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New("ui", INFO, &buf)

	var seenID string
	handler := NewHTTPLogger(logger).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping?x=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "http", entries[0].Category)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, seenID, entries[0].RequestID)
	assert.Equal(t, "/ping", entries[0].Fields["path"])
	assert.EqualValues(t, http.StatusTeapot, entries[0].Fields["status"])
}

func TestHTTPLoggerKeepsIncomingRequestID(t *testing.T) {
	logger := New("", INFO, &bytes.Buffer{})
	var observed int
	mw := NewHTTPLogger(logger)
	mw.Observe = func(_ *http.Request, status int, _ time.Duration) { observed = status }
	handler := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusOK, observed)
}

func TestFileWriterRotatesAndCompresses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui.log")
	fw, err := NewFileWriter(path, 1, 2)
	require.NoError(t, err)
	fw.maxSize = 64

	logger := New("ui", INFO, fw)
	for i := 0; i < 10; i++ {
		logger.Info("general", "a fairly long line that forces rotation", nil)
	}
	require.NoError(t, fw.Close())

	rotated, err := filepath.Glob(path + ".*.gz")
	require.NoError(t, err)
	assert.NotEmpty(t, rotated)
	assert.LessOrEqual(t, len(rotated), 2)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestReadRecent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui.log")
	fw, err := NewFileWriter(path, 1, 2)
	require.NoError(t, err)
	logger := New("ui", INFO, fw)
	logger.Info("general", "one", nil)
	logger.Info("general", "two", nil)
	logger.Info("general", "three", nil)
	require.NoError(t, fw.Close())

	entries, err := ReadRecent(path, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "two", entries[0].Message)
	assert.Equal(t, "three", entries[1].Message)

	missing, err := ReadRecent(filepath.Join(dir, "missing.log"), 5)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
