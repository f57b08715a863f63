package leaderboard

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	// LogFile is the append-only record of every score
	LogFile = "scoreboard.csv"
	// TopFile holds the current top ten, rewritten after every append
	TopFile = "top10.csv"
)

// FileStore keeps scores in CSV files inside a directory
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create leaderboard directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the CSV files
func (s *FileStore) Dir() string {
	return s.dir
}

// Append writes the entry to the log and refreshes the top ten file
func (s *FileStore) Append(ctx context.Context, e Entry) error {
	if err := validateEntry(e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.dir, LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open score log: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(encodeEntry(e)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write score: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write score: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	entries, err := s.readAll()
	if err != nil {
		return err
	}
	return s.writeTop(rank(entries, TopN))
}

// Top ranks the full log
func (s *FileStore) Top(ctx context.Context, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return rank(entries, n), nil
}

// All returns the log in recording order
func (s *FileStore) All(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

// Close is a no-op; files are only held open during writes
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) readAll() ([]Entry, error) {
	f, err := os.Open(filepath.Join(s.dir, LogFile))
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open score log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	entries := []Entry{}
	for line := 1; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", LogFile, err)
		}
		e, err := decodeEntry(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", LogFile, line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// writeTop replaces the top ten file through a rename so readers never see
// a half-written ranking.
func (s *FileStore) writeTop(top []Entry) error {
	tmp, err := os.CreateTemp(s.dir, TopFile+".*")
	if err != nil {
		return fmt.Errorf("failed to write top scores: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	for _, e := range top {
		if err := w.Write(encodeEntry(e)); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write top scores: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write top scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, TopFile))
}

func encodeEntry(e Entry) []string {
	return []string{
		e.ID,
		e.Name,
		strconv.Itoa(e.Score),
		strconv.Itoa(e.Difficulty),
		e.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeEntry(record []string) (Entry, error) {
	score, err := strconv.Atoi(record[2])
	if err != nil {
		return Entry{}, fmt.Errorf("non-integer score %q", record[2])
	}
	difficulty, err := strconv.Atoi(record[3])
	if err != nil {
		return Entry{}, fmt.Errorf("non-integer difficulty %q", record[3])
	}
	recordedAt, err := time.Parse(time.RFC3339Nano, record[4])
	if err != nil {
		return Entry{}, fmt.Errorf("bad timestamp %q: %w", record[4], err)
	}
	return Entry{
		ID:         record[0],
		Name:       record[1],
		Score:      score,
		Difficulty: difficulty,
		RecordedAt: recordedAt,
	}, nil
}
