package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// FileArchive stores promotional messages as one file per message in a
// local directory, so a durable copy exists before the server copy is
// deleted
type FileArchive struct {
	dir    string
	logger *zap.Logger
}

// NewFileArchive creates the archive directory if needed
func NewFileArchive(dir string, logger *zap.Logger) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FileArchive{dir: dir, logger: logger}, nil
}

// Store writes the full original message to a file named deterministically
// from the message timestamp and its original mailbox index
func (a *FileArchive) Store(raw []byte, timestamp time.Time, index int) (string, error) {
	name := fmt.Sprintf("spam_%s_%d.eml", timestamp.UTC().Format("20060102_150405"), index)
	path := filepath.Join(a.dir, name)

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archived message: %w", err)
	}
	a.logger.Info("Archived promotional message",
		zap.String("file", name),
		zap.Int("index", index))
	return path, nil
}

// DefaultDir returns the default archive location under the user home
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "spam")
	}
	return filepath.Join(home, "MailLedger", "spam")
}
