package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// LogEntry is one JSON line of a run log.
type LogEntry struct {
	Timestamp string `json:"time"`
	Level     string `json:"level"`
	Tool      string `json:"msg"`
	Program   string `json:"PROGRAM"`
	Sample    string `json:"SAMPLE"`
	Status    string `json:"STATUS"`
	Cmd       string `json:"CMD"`
}

// ParseLogFile returns the entries of a run log. A missing file yields no
// entries; lines that are not JSON are skipped.
func ParseLogFile(logFilePath string) []LogEntry {
	var entries []LogEntry
	file, err := os.Open(logFilePath)
	if err != nil {
		return entries
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// StageHasCompleted reports whether the most recent event logged for
// program/sample has status COMPLETED.
func StageHasCompleted(entries []LogEntry, program string, sample string) bool {
	last := ""
	for _, e := range entries {
		if e.Program == program && e.Sample == sample {
			last = e.Status
		}
	}
	return last == "COMPLETED"
}

// OpenRunLog opens (appending) the JSON run log at logFilePath and returns a
// logger writing every record to that file and to stderr.
func OpenRunLog(logFilePath string) (*slog.Logger, func() error, error) {
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := slog.New(slogmulti.Fanout(
		slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
	))
	return logger, logFile.Close, nil
}

// Stage logs the STARTED/COMPLETED/FAILED events of one step.
type Stage struct {
	Logger  *slog.Logger
	Tool    string
	Program string
	Sample  string
}

func (s Stage) Started() {
	s.Logger.Info(s.Tool, "PROGRAM", s.Program, "SAMPLE", s.Sample, "STATUS", "STARTED", "CMD", "ALL")
}

func (s Stage) Completed() {
	s.Logger.Info(s.Tool, "PROGRAM", s.Program, "SAMPLE", s.Sample, "STATUS", "COMPLETED", "CMD", "ALL")
}

func (s Stage) Failed(err error) {
	s.Logger.Error(s.Tool, "PROGRAM", s.Program, "SAMPLE", s.Sample, "STATUS", fmt.Sprintf("FAILED - %v", err))
}
