// Package session persists analysis runs on disk. Each run owns a directory
// named by its identifier holding the per-document analyses, the cross
// analysis, the technical memory and the global summary.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/marchepublic/ao-agent/crossdoc"
	"github.com/marchepublic/ao-agent/jsonutil"
	"github.com/marchepublic/ao-agent/memory"
)

const (
	analysesFile = "analyses.json"
	crossFile    = "cross_analysis.json"
	memoryFile   = "technical_memory.json"
	summaryFile  = "global_summary.txt"
)

// DocumentRecord is the persisted form of one analyzed document.
type DocumentRecord struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Analysis map[string]any `json:"analysis"`
}

// UnmarshalJSON tolerates a double-encoded analysis payload: older runs
// stored the analysis object as a JSON string. An undecodable payload
// degrades to an empty map rather than failing the whole load.
func (r *DocumentRecord) UnmarshalJSON(data []byte) error {
	type alias struct {
		Name     string          `json:"name"`
		Type     string          `json:"type"`
		Analysis json.RawMessage `json:"analysis"`
	}

	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	r.Name = a.Name
	r.Type = a.Type
	r.Analysis = decodeAnalysis(a.Analysis)
	return nil
}

func decodeAnalysis(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	var direct map[string]any
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		var nested map[string]any
		if err := json.Unmarshal([]byte(encoded), &nested); err == nil {
			return nested
		}
	}

	return map[string]any{}
}

// RunInfo describes one persisted run.
type RunInfo struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Documents int       `json:"documents"`
}

// Store manages run directories under a storage root.
type Store struct {
	root   string
	logger *log.Logger
}

func NewStore(root string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{root: root, logger: logger}
}

// NewRunID returns a fresh 8-character lowercase hex run identifier.
func NewRunID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// a time-derived id rather than panicking.
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(buf)
}

// RunDir returns the directory of a run, creating nothing.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.root, runID)
}

// Persist writes all run artifacts atomically enough for this use: the run
// directory is created first, then each file in turn.
func (s *Store) Persist(runID string, records []DocumentRecord, cross crossdoc.CrossAnalysis, mem memory.TechnicalMemory, summary string) error {
	dir := s.RunDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	if err := s.writeJSON(filepath.Join(dir, analysesFile), records); err != nil {
		return err
	}
	if err := s.writeJSON(filepath.Join(dir, crossFile), cross); err != nil {
		return err
	}
	if err := s.writeJSON(filepath.Join(dir, memoryFile), mem); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, summaryFile), []byte(summary), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", summaryFile, err)
	}

	return nil
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := jsonutil.MarshalIndent(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadAnalyses reads the per-document analyses of a run. A missing or
// malformed file is not an error: the run simply has no usable analyses,
// which is what an interrupted save leaves behind.
func (s *Store) LoadAnalyses(runID string) ([]DocumentRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), analysesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []DocumentRecord{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", analysesFile, err)
	}

	records := make([]DocumentRecord, 0)
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Printf("decode %s for run %s: %v", analysesFile, runID, err)
		return []DocumentRecord{}, nil
	}
	return records, nil
}

func (s *Store) LoadCrossAnalysis(runID string) (crossdoc.CrossAnalysis, error) {
	var cross crossdoc.CrossAnalysis
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), crossFile))
	if err != nil {
		return cross, fmt.Errorf("read %s: %w", crossFile, err)
	}
	if err := json.Unmarshal(data, &cross); err != nil {
		return cross, fmt.Errorf("decode %s: %w", crossFile, err)
	}
	return cross, nil
}

func (s *Store) LoadMemory(runID string) (memory.TechnicalMemory, error) {
	var mem memory.TechnicalMemory
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), memoryFile))
	if err != nil {
		return mem, fmt.Errorf("read %s: %w", memoryFile, err)
	}
	if err := json.Unmarshal(data, &mem); err != nil {
		return mem, fmt.Errorf("decode %s: %w", memoryFile, err)
	}
	return mem, nil
}

func (s *Store) LoadSummary(runID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), summaryFile))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", summaryFile, err)
	}
	return string(data), nil
}

// Runs lists persisted runs, most recently updated first.
func (s *Store) Runs() ([]RunInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunInfo{}, nil
		}
		return nil, fmt.Errorf("read storage root: %w", err)
	}

	runs := make([]RunInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		docs := 0
		if records, err := s.LoadAnalyses(entry.Name()); err == nil {
			docs = len(records)
		}

		runs = append(runs, RunInfo{
			ID:        entry.Name(),
			UpdatedAt: info.ModTime(),
			Documents: docs,
		})
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].UpdatedAt.After(runs[j].UpdatedAt)
	})
	return runs, nil
}

// DeleteRun removes a run directory and everything in it.
func (s *Store) DeleteRun(runID string) error {
	if err := os.RemoveAll(s.RunDir(runID)); err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	return nil
}

// PurgeExpired deletes run directories whose last modification is older than
// maxAge, skipping the excluded identifiers. Deletion errors are logged and
// skipped so one stubborn directory does not stop the sweep. Returns the
// identifiers of the deleted runs.
func (s *Store) PurgeExpired(maxAge time.Duration, exclude ...string) []string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil
	}

	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() || skip[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			s.logger.Printf("purge %s: %v", entry.Name(), err)
			continue
		}
		deleted = append(deleted, entry.Name())
	}

	return deleted
}
