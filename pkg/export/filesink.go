package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yaJ17/FootTraffic-Analyzer/internal/log"
)

// statsDocument is the on-disk layout of the statistics file.
type statsDocument struct {
	Records []Stats `json:"records"`
}

// FileSink appends each exported record to a JSON statistics file. Before
// every rewrite the previous file is copied into a timestamped backup, so a
// crash mid-write cannot lose history.
type FileSink struct {
	mu        sync.Mutex
	path      string
	backupDir string
	doc       statsDocument
	loaded    bool
}

// NewFileSink creates a file sink writing to path. Backups go to a
// "backups" directory next to the statistics file.
func NewFileSink(path string) *FileSink {
	return &FileSink{
		path:      path,
		backupDir: filepath.Join(filepath.Dir(path), "backups"),
	}
}

// Write implements Sink.
func (f *FileSink) Write(_ context.Context, s Stats) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		if err := f.load(); err != nil {
			return err
		}
	}

	f.doc.Records = append(f.doc.Records, s)
	return f.save()
}

// Records returns a copy of all records currently held.
func (f *FileSink) Records() ([]Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		if err := f.load(); err != nil {
			return nil, err
		}
	}
	out := make([]Stats, len(f.doc.Records))
	copy(out, f.doc.Records)
	return out, nil
}

// load reads the existing statistics file, if any.
func (f *FileSink) load() error {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		f.doc = statsDocument{Records: []Stats{}}
		f.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("export: read stats file: %w", err)
	}
	if err := json.Unmarshal(data, &f.doc); err != nil {
		// A corrupt file is backed up and replaced rather than blocking
		// all future exports.
		log.Warn("stats file corrupt, starting fresh", "path", f.path, "error", err)
		f.backup()
		f.doc = statsDocument{Records: []Stats{}}
	}
	if f.doc.Records == nil {
		f.doc.Records = []Stats{}
	}
	f.loaded = true
	return nil
}

func (f *FileSink) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("export: create stats dir: %w", err)
	}
	f.backup()

	data, err := json.MarshalIndent(f.doc, "", "    ")
	if err != nil {
		return fmt.Errorf("export: marshal stats: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("export: write stats file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("export: replace stats file: %w", err)
	}
	return nil
}

// backup copies the current statistics file into the backup directory with a
// timestamp suffix. Failure to back up is logged, not fatal.
func (f *FileSink) backup() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return
	}
	if err := os.MkdirAll(f.backupDir, 0o755); err != nil {
		log.Warn("cannot create backup dir", "dir", f.backupDir, "error", err)
		return
	}

	base := filepath.Base(f.path)
	name := fmt.Sprintf("%s_%s.json",
		base[:len(base)-len(filepath.Ext(base))],
		lastBackupStamp())
	if err := os.WriteFile(filepath.Join(f.backupDir, name), data, 0o644); err != nil {
		log.Warn("cannot write backup", "file", name, "error", err)
	}
}

// lastBackupStamp returns the timestamp suffix for backup files. Second
// resolution means rapid consecutive saves within one second share a backup.
func lastBackupStamp() string {
	return time.Now().Format("20060102_150405")
}
