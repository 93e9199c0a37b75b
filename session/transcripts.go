package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one rendered line of a saved conversation.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is a saved conversation with one model.
type Transcript struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"` // "<model>@<endpoint>" reference
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Entry   `json:"entries"`
}

// TranscriptMetadata is a lightweight view for listing.
type TranscriptMetadata struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	UpdatedAt  time.Time `json:"updated_at"`
	EntryCount int       `json:"entry_count"`
}

// Storage persists transcripts as JSON files under the data directory.
type Storage struct {
	dir string
}

// NewStorage creates transcript storage under dataDir.
func NewStorage(dataDir string) (*Storage, error) {
	dir := filepath.Join(dataDir, "transcripts")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create transcripts directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes a transcript to disk, assigning an id on first save.
func (s *Storage) Save(t *Transcript) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.UpdatedAt = time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = t.UpdatedAt
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	// 0600 - transcripts contain conversation history
	path := filepath.Join(s.dir, t.ID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Load reads one transcript by id.
func (s *Storage) Load(id string) (*Transcript, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &t, nil
}

// List returns metadata for all transcripts, newest first. Corrupted files
// are skipped.
func (s *Storage) List() ([]TranscriptMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcripts directory: %w", err)
	}

	var metas []TranscriptMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var t Transcript
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		metas = append(metas, TranscriptMetadata{
			ID:         t.ID,
			Model:      t.Model,
			UpdatedAt:  t.UpdatedAt,
			EntryCount: len(t.Entries),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a transcript from disk.
func (s *Storage) Delete(id string) error {
	if err := os.Remove(filepath.Join(s.dir, id+".json")); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}
