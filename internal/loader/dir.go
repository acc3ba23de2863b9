package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	aliasesFile = "aliases.yaml"
	sourcesDir  = "sources"
)

// aliasDoc is the layout of aliases.yaml.
type aliasDoc struct {
	Brands   map[string]string   `yaml:"brands"`
	Products map[string][]string `yaml:"products"`
}

func (l *Loader) listDir() ([]schema.SnapshotKey, error) {
	categories, err := os.ReadDir(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	var keys []schema.SnapshotKey
	for _, cat := range categories {
		if !cat.IsDir() || hidden(cat.Name()) {
			continue
		}
		dates, err := os.ReadDir(filepath.Join(l.path, cat.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read category %s: %w", cat.Name(), err)
		}
		for _, d := range dates {
			if !d.IsDir() || hidden(d.Name()) {
				continue
			}
			keys = append(keys, schema.SnapshotKey{CategoryID: cat.Name(), Date: d.Name()})
		}
	}
	return keys, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// readSnapshotDir reads every table CSV of one snapshot concurrently, then
// merges category-level and snapshot-level aliases.
func (l *Loader) readSnapshotDir(ctx context.Context, key schema.SnapshotKey) (*rawSnapshot, error) {
	dir := filepath.Join(l.path, key.CategoryID, key.Date)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", contract.ErrSnapshotNotFound, key.CategoryID, key.Date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}

	results := make([][]map[string]any, len(names))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxCSVConcurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rows, err := readCSV(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("failed to read table %s: %w", name, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw := &rawSnapshot{
		CategoryID:   key.CategoryID,
		SnapshotDate: key.Date,
		Tables:       make(map[string][]map[string]any, len(names)),
	}
	for i, name := range names {
		raw.Tables[strings.TrimSuffix(name, filepath.Ext(name))] = results[i]
	}

	categoryAliases, err := readAliases(filepath.Join(l.path, key.CategoryID, aliasesFile))
	if err != nil {
		return nil, err
	}
	snapshotAliases, err := readAliases(filepath.Join(dir, aliasesFile))
	if err != nil {
		return nil, err
	}
	raw.BrandAliases = mergeMaps(categoryAliases.Brands, snapshotAliases.Brands)
	raw.ProductAliases = mergeMaps(categoryAliases.Products, snapshotAliases.Products)

	if raw.Sources, err = l.readSources(filepath.Join(dir, sourcesDir)); err != nil {
		return nil, err
	}
	return raw, nil
}

// readCSV reads a headed CSV file into rows of raw strings.
func readCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []map[string]any
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readAliases(path string) (aliasDoc, error) {
	var doc aliasDoc
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read aliases: %w", err)
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}

// readSources turns every regular file of dir into a source document whose id
// is the file name without extension.
func (l *Loader) readSources(dir string) ([]schema.SourceDoc, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	var docs []schema.SourceDoc
	for _, e := range entries {
		if e.IsDir() || hidden(e.Name()) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			l.logger.Warn("skipping unreadable source", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		docs = append(docs, schema.SourceDoc{
			ID:      id,
			Title:   strings.ReplaceAll(id, "_", " "),
			Content: string(content),
		})
	}
	return docs, nil
}

// mergeMaps returns base overlaid with override, or nil when both are empty.
func mergeMaps[V any](base, override map[string]V) map[string]V {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]V, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}
