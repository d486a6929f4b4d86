package persistedmap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/artie-labs/binlog-reader/lib/logger"
)

// PersistedMap is a small key/value store backed by a YAML file. Every [PersistedMap.Set] rewrites the file.
type PersistedMap[T any] struct {
	filePath string
	mu       sync.RWMutex
	data     map[string]T
}

func NewPersistedMap[T any](filePath string) *PersistedMap[T] {
	persistedMap := &PersistedMap[T]{
		filePath: filePath,
		data:     make(map[string]T),
	}

	data, err := loadFromFile[T](filePath)
	if err != nil {
		logger.Panic("Failed to load persisted map from filepath", slog.String("filePath", filePath), slog.Any("err", err))
	}

	if len(data) > 0 {
		persistedMap.data = data
	}

	return persistedMap
}

func (p *PersistedMap[T]) Set(key string, value T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data[key] = value
	return p.flush()
}

func (p *PersistedMap[T]) Get(key string) (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	value, isOk := p.data[key]
	return value, isOk
}

// flush swaps in a fully written copy of the file.
// Callers must hold the lock.
func (p *PersistedMap[T]) flush() error {
	yamlBytes, err := yaml.Marshal(p.data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(p.filePath), filepath.Base(p.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err = tmpFile.Write(yamlBytes); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return fmt.Errorf("failed to write to file: %w", err)
	}

	if err = tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err = os.Rename(tmpFile.Name(), p.filePath); err != nil {
		return fmt.Errorf("failed to replace %q: %w", p.filePath, err)
	}

	return nil
}

func loadFromFile[T any](filePath string) (map[string]T, error) {
	readBytes, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var data map[string]T
	if err = yaml.Unmarshal(readBytes, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return data, nil
}
