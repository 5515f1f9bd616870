package vocabulary

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"langid/internal/service/tokenizer"
)

const snapshotVersion = "1.0"

// Snapshot is the serializable form of a finalized vocabulary
type Snapshot struct {
	Version      string           // Format version
	ID           string           // Unique snapshot id
	Name         string           // Logical name, usually the corpus name
	CreatedAt    time.Time        // When the snapshot was taken
	MinFrequency int64            // Prune threshold used
	Samples      int64            // Samples ingested
	Languages    map[string]int64 // language -> samples ingested
	Words        []string         // Finalized order
	Counts       []int64          // Count of Words[i]
}

// Snapshot captures a finalized vocabulary for persistence
func (v *Vocabulary) Snapshot(name string) (*Snapshot, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if err := v.requirePhase("snapshot", Finalized); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:      snapshotVersion,
		ID:           uuid.NewString(),
		Name:         name,
		CreatedAt:    time.Now(),
		MinFrequency: v.minFrequency,
		Samples:      v.samples,
		Languages:    make(map[string]int64, len(v.languages)),
		Words:        make([]string, len(v.words)),
		Counts:       make([]int64, len(v.words)),
	}
	for language, n := range v.languages {
		snap.Languages[language] = n
	}
	for i, term := range v.words {
		snap.Words[i] = term
		snap.Counts[i] = v.counts[term]
	}
	return snap, nil
}

// FromSnapshot rebuilds a finalized vocabulary
func FromSnapshot(snap *Snapshot, tok tokenizer.Tokenizer, logger *zap.Logger) (*Vocabulary, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %s", snap.Version)
	}
	if len(snap.Words) != len(snap.Counts) {
		return nil, fmt.Errorf("corrupt snapshot: %d words but %d counts", len(snap.Words), len(snap.Counts))
	}

	v := New(tok, logger)
	for i, term := range snap.Words {
		if _, dup := v.counts[term]; dup {
			return nil, fmt.Errorf("corrupt snapshot: duplicate term %q", term)
		}
		v.counts[term] = snap.Counts[i]
	}
	for language, n := range snap.Languages {
		v.languages[language] = n
	}
	words := make([]string, len(snap.Words))
	copy(words, snap.Words)
	v.setWords(words)
	v.samples = snap.Samples
	v.minFrequency = snap.MinFrequency
	v.perLanguage = nil
	v.phase = Finalized
	return v, nil
}

// Persistence handles saving and loading vocabularies as gob files
type Persistence struct {
	outputDir string
	logger    *zap.Logger
}

// NewPersistence creates a persistence manager rooted at outputDir
func NewPersistence(outputDir string, logger *zap.Logger) (*Persistence, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Persistence{
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

// Path returns the file path for a named vocabulary
func (p *Persistence) Path(name string) string {
	return filepath.Join(p.outputDir, fmt.Sprintf("%s_vocabulary.gob", name))
}

// Save writes a finalized vocabulary to disk and returns its snapshot id
func (p *Persistence) Save(v *Vocabulary, name string) (string, error) {
	snap, err := v.Snapshot(name)
	if err != nil {
		return "", err
	}

	path := p.Path(name)
	if err := saveToFile(snap, path); err != nil {
		return "", fmt.Errorf("failed to save to file: %w", err)
	}

	p.logger.Info("Saved vocabulary",
		zap.String("name", name),
		zap.String("id", snap.ID),
		zap.String("path", path),
		zap.Int("terms", len(snap.Words)),
		zap.Int64("samples", snap.Samples))

	return snap.ID, nil
}

// Load reads a named vocabulary from disk
func (p *Persistence) Load(name string, tok tokenizer.Tokenizer) (*Vocabulary, error) {
	path := p.Path(name)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no saved vocabulary found: %s", name)
	}

	snap, err := loadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load from file: %w", err)
	}

	v, err := FromSnapshot(snap, tok, p.logger)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Loaded vocabulary",
		zap.String("name", name),
		zap.String("id", snap.ID),
		zap.String("path", path),
		zap.Int("terms", len(snap.Words)))

	return v, nil
}

// Exists checks if a saved vocabulary exists
func (p *Persistence) Exists(name string) bool {
	_, err := os.Stat(p.Path(name))
	return err == nil
}

// Delete removes a saved vocabulary
func (p *Persistence) Delete(name string) error {
	path := p.Path(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete vocabulary: %w", err)
	}

	p.logger.Info("Deleted vocabulary", zap.String("name", name), zap.String("path", path))
	return nil
}

func saveToFile(snap *Snapshot, path string) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := gob.NewEncoder(file).Encode(snap); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode vocabulary: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close file: %w", err)
	}

	return os.Rename(tmp, path)
}

func loadFromFile(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var snap Snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary: %w", err)
	}

	return &snap, nil
}
