// Package loader reads snapshots from disk. It is the data ingestion collaborator
// behind the engine: either a single JSON/YAML file listing snapshots, or a
// directory laid out as <category>/<snapshot>/<table>.csv.
package loader

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/logger"
	"github.com/huangsam/catiq/schema"
	"go.uber.org/zap"
)

// maxCSVConcurrency bounds the table files read at once.
const maxCSVConcurrency = 4

// rawSnapshot is one snapshot before its cells are coerced.
type rawSnapshot struct {
	CategoryID     string                      `json:"category_id" yaml:"category_id"`
	SnapshotDate   string                      `json:"snapshot_date" yaml:"snapshot_date"`
	Tables         map[string][]map[string]any `json:"tables" yaml:"tables"`
	BrandAliases   map[string]string           `json:"brand_aliases" yaml:"brand_aliases"`
	ProductAliases map[string][]string         `json:"product_aliases" yaml:"product_aliases"`
	Sources        []schema.SourceDoc          `json:"sources" yaml:"sources"`
}

// Loader implements contract.SnapshotLoader over a file or directory.
// Every call reads from disk, so results are always fresh copies.
type Loader struct {
	path   string
	isDir  bool
	logger *zap.Logger
	now    func() time.Time
}

var _ contract.SnapshotLoader = &Loader{} // Compile-time check

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for skipped files and tables.
func WithLogger(zl *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger.OrNop(zl) }
}

// WithClock overrides the clock stamped into Snapshot.LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// New returns a loader for the given path.
func New(path string, opts ...Option) (*Loader, error) {
	if path == "" {
		return nil, fmt.Errorf("data path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data path: %w", err)
	}
	l := &Loader{path: path, isDir: info.IsDir(), logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// ListSnapshots returns every available snapshot key sorted by category then date.
func (l *Loader) ListSnapshots(ctx context.Context) ([]schema.SnapshotKey, error) {
	var keys []schema.SnapshotKey
	if l.isDir {
		var err error
		if keys, err = l.listDir(); err != nil {
			return nil, err
		}
	} else {
		raws, err := l.readFile()
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			keys = append(keys, schema.SnapshotKey{CategoryID: raw.CategoryID, Date: raw.SnapshotDate})
		}
	}
	slices.SortFunc(keys, compareKeys)
	return slices.CompactFunc(keys, func(a, b schema.SnapshotKey) bool { return a == b }), nil
}

// LoadSnapshot returns the snapshot for key. An empty date resolves to the
// latest snapshot of the category.
func (l *Loader) LoadSnapshot(ctx context.Context, key schema.SnapshotKey) (*schema.Snapshot, error) {
	resolved, err := l.resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	var raw *rawSnapshot
	if l.isDir {
		raw, err = l.readSnapshotDir(ctx, resolved)
	} else {
		raw, err = l.findInFile(resolved)
	}
	if err != nil {
		return nil, err
	}

	snap := &schema.Snapshot{
		Key:            resolved,
		Tables:         l.coerceTables(resolved, raw.Tables),
		BrandAliases:   raw.BrandAliases,
		ProductAliases: raw.ProductAliases,
		Sources:        raw.Sources,
		LoadedAt:       l.now(),
	}
	snap.Index = schema.BuildIndex(snap.Tables, snap.BrandAliases, snap.ProductAliases)
	return snap, nil
}

// LoadTables returns the tables of one snapshot.
func (l *Loader) LoadTables(ctx context.Context, key schema.SnapshotKey) (schema.Tables, error) {
	snap, err := l.LoadSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	return snap.Tables, nil
}

// LoadIndex returns the product index of one snapshot.
func (l *Loader) LoadIndex(ctx context.Context, key schema.SnapshotKey) (*schema.ProductIndex, error) {
	snap, err := l.LoadSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	return snap.Index, nil
}

// LoadSources returns the source documents attached to one snapshot.
func (l *Loader) LoadSources(ctx context.Context, key schema.SnapshotKey) ([]schema.SourceDoc, error) {
	snap, err := l.LoadSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	return snap.Sources, nil
}

func (l *Loader) resolve(ctx context.Context, key schema.SnapshotKey) (schema.SnapshotKey, error) {
	if key.CategoryID == "" {
		return key, fmt.Errorf("%w: category is required", contract.ErrSnapshotNotFound)
	}
	keys, err := l.ListSnapshots(ctx)
	if err != nil {
		return key, err
	}
	var latest *schema.SnapshotKey
	for i, k := range keys {
		if k.CategoryID != key.CategoryID {
			continue
		}
		if key.Date == "" || k.Date == key.Date {
			latest = &keys[i]
		}
	}
	if latest == nil {
		return key, fmt.Errorf("%w: %s %s", contract.ErrSnapshotNotFound, key.CategoryID, key.Date)
	}
	return *latest, nil
}

// coerceTables keeps registry tables only and coerces every declared column.
// Missing key columns are filled from the snapshot key.
func (l *Loader) coerceTables(key schema.SnapshotKey, in map[string][]map[string]any) schema.Tables {
	out := make(schema.Tables, len(in))
	for name, rows := range in {
		ts, ok := schema.LookupTable(name)
		if !ok {
			l.logger.Debug("skipping unknown table", zap.String("table", name), zap.String("snapshot", key.String()))
			continue
		}
		coerced := make([]schema.Row, 0, len(rows))
		for _, raw := range rows {
			row := make(schema.Row, len(ts.Columns))
			for _, col := range ts.Columns {
				v := raw[col.Name]
				// YAML decodes unquoted dates as timestamps
				if t, ok := v.(time.Time); ok {
					v = t.Format(time.DateOnly)
				}
				row[col.Name] = schema.CoerceValue(v, col.Type)
			}
			if row["category_id"] == nil {
				row["category_id"] = key.CategoryID
			}
			if row["snapshot_date"] == nil {
				row["snapshot_date"] = key.Date
			}
			coerced = append(coerced, row)
		}
		out[name] = coerced
	}
	return out
}

func compareKeys(a, b schema.SnapshotKey) int {
	return cmp.Or(strings.Compare(a.CategoryID, b.CategoryID), strings.Compare(a.Date, b.Date))
}
