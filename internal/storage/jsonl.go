package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"poolLedger/internal/model"
)

// JsonlArchive appends fetched raw logs and decode failures to JSONL files.
type JsonlArchive struct {
	logsPath   string
	errorsPath string
	mu         sync.Mutex
}

func NewJsonlArchive(dir string) *JsonlArchive {
	return &JsonlArchive{
		logsPath:   filepath.Join(dir, "raw_logs.jsonl"),
		errorsPath: filepath.Join(dir, "decode_errors.jsonl"),
	}
}

// PutLogBatch appends a batch of raw logs as JSON lines.
func (s *JsonlArchive) PutLogBatch(logs []model.RawLog) error {
	if len(logs) == 0 {
		return nil
	}
	lines := make([]interface{}, 0, len(logs))
	for _, log := range logs {
		lines = append(lines, log)
	}
	return s.appendLines(s.logsPath, lines)
}

// PutDecodeErrors appends skipped-log records as JSON lines.
func (s *JsonlArchive) PutDecodeErrors(errs []model.DecodeError) error {
	if len(errs) == 0 {
		return nil
	}
	lines := make([]interface{}, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, e)
	}
	return s.appendLines(s.errorsPath, lines)
}

func (s *JsonlArchive) appendLines(path string, records []interface{}) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal archive record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write archive record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}

	return nil
}
