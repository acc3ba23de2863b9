package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// snapshotFile is the document layout of a single data file.
type snapshotFile struct {
	Snapshots []rawSnapshot `json:"snapshots" yaml:"snapshots"`
}

// readFile decodes the data file. Files ending in .json use encoding/json,
// everything else is read as YAML.
func (l *Loader) readFile() ([]rawSnapshot, error) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var doc snapshotFile
	if strings.EqualFold(filepath.Ext(l.path), ".json") {
		err = json.Unmarshal(content, &doc)
	} else {
		err = yaml.Unmarshal(content, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode data file %s: %w", l.path, err)
	}

	valid := doc.Snapshots[:0]
	for _, raw := range doc.Snapshots {
		if raw.CategoryID == "" || raw.SnapshotDate == "" {
			l.logger.Warn("skipping snapshot without category or date", zap.String("path", l.path))
			continue
		}
		valid = append(valid, raw)
	}
	return valid, nil
}

func (l *Loader) findInFile(key schema.SnapshotKey) (*rawSnapshot, error) {
	raws, err := l.readFile()
	if err != nil {
		return nil, err
	}
	for i := range raws {
		if raws[i].CategoryID == key.CategoryID && raws[i].SnapshotDate == key.Date {
			return &raws[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s", contract.ErrSnapshotNotFound, key.CategoryID, key.Date)
}
