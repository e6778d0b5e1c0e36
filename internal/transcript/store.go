package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const saveTimeLayout = "20060102_150405"

// Save outcomes reported to the store observer.
const (
	SaveOutcomeSaved = "saved"
	SaveOutcomeEmpty = "empty"
	SaveOutcomeError = "error"
)

// Store writes SaveRecords as formatted JSON files under a fixed
// directory. Save never fails past its boundary: every error path
// collapses to a status string the model narrates to the player.
type Store struct {
	dir      string
	archive  Archive
	now      func() time.Time
	observer func(outcome string)
}

type StoreOption func(*Store)

// WithClock overrides the wall clock used for save timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithArchive mirrors successful saves into an external archive.
func WithArchive(a Archive) StoreOption {
	return func(s *Store) { s.archive = a }
}

// WithObserver reports save outcomes, e.g. into metrics.
func WithObserver(fn func(outcome string)) StoreOption {
	return func(s *Store) { s.observer = fn }
}

func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the save directory root.
func (s *Store) Dir() string { return s.dir }

// Save persists the given history as a SaveRecord and returns a
// human-readable status string. An empty history is rejected without
// touching the disk.
func (s *Store) Save(ctx context.Context, history []Turn) string {
	if len(history) == 0 {
		s.observe(SaveOutcomeEmpty)
		return "❌ Cannot save: the chat history is empty."
	}

	player := PlayerName(history)
	stamp := s.now().Format(saveTimeLayout)
	record := SaveRecord{
		Game:       GameTitle,
		PlayerName: player,
		SaveTime:   stamp,
		TurnsCount: len(history),
		History:    history,
	}

	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		log.Printf("transcript: encode save record: %v", err)
		s.observe(SaveOutcomeError)
		return fmt.Sprintf("❌ Error saving game state: %v", err)
	}

	// The directory is created on demand; repeat saves are a no-op here.
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Printf("transcript: create save dir %s: %v", s.dir, err)
		s.observe(SaveOutcomeError)
		return fmt.Sprintf("❌ Error saving game state: %v", err)
	}

	name := fmt.Sprintf("%s_%s.json", player, stamp)
	path := filepath.Join(s.dir, name)
	// Two saves for the same player within the same second would collide;
	// disambiguate with a counter instead of silently overwriting.
	for n := 2; ; n++ {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			// Any other Stat failure is left for WriteFile to surface.
			break
		}
		name = fmt.Sprintf("%s_%s_%d.json", player, stamp, n)
		path = filepath.Join(s.dir, name)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("transcript: write save file %s: %v", path, err)
		s.observe(SaveOutcomeError)
		return fmt.Sprintf("❌ Error saving game state: %v", err)
	}

	if s.archive != nil {
		if err := s.archive.SaveGame(ctx, record); err != nil {
			// The file on disk is canonical; the archive mirror is best effort.
			log.Printf("transcript: archive save failed: %v", err)
		}
	}

	log.Printf("transcript: game state saved to %s", path)
	s.observe(SaveOutcomeSaved)
	return fmt.Sprintf("✅ Game state saved successfully as %s.", name)
}

func (s *Store) observe(outcome string) {
	if s.observer != nil {
		s.observer(outcome)
	}
}

// SaveInfo describes one save file on disk.
type SaveInfo struct {
	File      string    `json:"file"`
	SizeBytes int64     `json:"size_bytes"`
	SavedAt   time.Time `json:"saved_at"`
}

// List returns the save files currently on disk, newest first. A missing
// save directory is reported as an empty list.
func (s *Store) List() ([]SaveInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read save dir: %w", err)
	}

	saves := make([]SaveInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		saves = append(saves, SaveInfo{
			File:      e.Name(),
			SizeBytes: info.Size(),
			SavedAt:   info.ModTime().UTC(),
		})
	}
	sort.Slice(saves, func(i, j int) bool { return saves[i].SavedAt.After(saves[j].SavedAt) })
	return saves, nil
}
