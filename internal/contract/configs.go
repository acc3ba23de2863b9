package contract

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/catiq/schema"
)

// Default values for configuration.
const (
	DefaultConfidenceThreshold = 0.55
	DefaultMaxToolRounds       = 8
	MaxToolRoundsLimit         = 20
	DefaultSnapshotTTL         = 60 * time.Second
	DefaultPersistTTL          = 24 * time.Hour
	DefaultLLMTimeout          = 30 * time.Second
	DefaultLLMRetries          = 2
	MaxLLMRetries              = 5
	DefaultResultLimit         = 10
	MaxResultLimit             = 500
	DefaultPrecision           = 1
)

// DefaultOwnBrands are the brands first-person questions refer to.
var DefaultOwnBrands = []string{"Innova", "BLCKTEC"}

// WeightKeys are the competitor similarity terms, in display order.
var WeightKeys = []string{"price", "type", "revenue", "units", "rating", "momentum"}

// DefaultCompetitorWeights are the stock competitor similarity weights.
var DefaultCompetitorWeights = map[string]float64{
	"price": 25, "type": 25, "revenue": 20, "units": 10, "rating": 10, "momentum": 10,
}

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds pprof settings for a CLI run.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, prefix string) {
	prefix = strings.TrimSpace(prefix)
	profile.Enabled = prefix != ""
	profile.Prefix = prefix
}

// WeightsRawInput holds custom competitor weights from the YAML config file.
// Use float64 pointers for optional fields.
type WeightsRawInput struct {
	Price    *float64 `mapstructure:"price"`
	Type     *float64 `mapstructure:"type"`
	Revenue  *float64 `mapstructure:"revenue"`
	Units    *float64 `mapstructure:"units"`
	Rating   *float64 `mapstructure:"rating"`
	Momentum *float64 `mapstructure:"momentum"`
}

// LLMConfig holds the external model settings.
type LLMConfig struct {
	BaseURL string
	APIKey  string // Please use env var as this is plaintext
	Model   string
	Timeout time.Duration
	Retries int
}

// Enabled reports whether a model endpoint is configured.
func (l LLMConfig) Enabled() bool {
	return l.BaseURL != "" && l.Model != ""
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	DataPath     string
	CategoryID   string
	SnapshotDate string
	TargetBrand  string
	OwnBrands    []string

	// Command inputs, taken from positional arguments
	Question         string
	Query            string
	Product          string
	TableName        string
	IncludeSameBrand bool

	GenerationMode      schema.GenerationMode
	ConfidenceThreshold float64
	MaxToolRounds       int
	Rephrase            bool
	LLM                 LLMConfig

	SnapshotTTL time.Duration
	PersistTTL  time.Duration

	Output      schema.OutputMode
	OutputFile  string
	Precision   int
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
	ResultLimit int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	// CompetitorWeights is the final weight per similarity term, defaults plus overrides
	CompetitorWeights map[string]float64

	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Data             string   `mapstructure:"data"`
	Category         string   `mapstructure:"category"`
	Snapshot         string   `mapstructure:"snapshot"`
	TargetBrand      string   `mapstructure:"target-brand"`
	OwnBrands        []string `mapstructure:"own-brands"`
	Output           string   `mapstructure:"output"`
	OutputFile       string   `mapstructure:"output-file"`
	Precision        int      `mapstructure:"precision"`
	Width            int      `mapstructure:"width"`
	Color            string   `mapstructure:"color"`
	Limit            int      `mapstructure:"limit"`
	SnapshotTTL      string   `mapstructure:"snapshot-ttl"`
	PersistTTL       string   `mapstructure:"persist-ttl"`
	CacheBackend     string   `mapstructure:"cache-backend"`
	CacheDBConnect   string   `mapstructure:"cache-db-connect"`
	HistoryBackend   string   `mapstructure:"history-backend"`
	HistoryDBConnect string   `mapstructure:"history-db-connect"`
	LogLevel         string   `mapstructure:"log-level"`
	LogFormat        string   `mapstructure:"log-format"`

	// --- Fields from subcommand flags and positional arguments ---
	Question         string `mapstructure:"-"`
	Query            string `mapstructure:"-"`
	Product          string `mapstructure:"product"`
	TableName        string `mapstructure:"-"`
	IncludeSameBrand bool   `mapstructure:"include-same-brand"`

	// --- Fields for answer generation ---
	Mode                string  `mapstructure:"mode"`
	ConfidenceThreshold float64 `mapstructure:"confidence-threshold"`
	MaxToolRounds       int     `mapstructure:"max-tool-rounds"`
	Rephrase            bool    `mapstructure:"rephrase"`
	LLMBaseURL          string  `mapstructure:"llm-base-url"`
	LLMAPIKey           string  `mapstructure:"llm-api-key"`
	LLMModel            string  `mapstructure:"llm-model"`
	LLMTimeout          string  `mapstructure:"llm-timeout"`
	LLMRetries          int     `mapstructure:"llm-retries"`

	// --- Fields from mcpCmd.Flags() ---
	MetricsAddr string `mapstructure:"metrics-addr"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.OwnBrands != nil {
		clone.OwnBrands = slices.Clone(c.OwnBrands)
	}
	if c.CompetitorWeights != nil {
		clone.CompetitorWeights = make(map[string]float64, len(c.CompetitorWeights))
		maps.Copy(clone.CompetitorWeights, c.CompetitorWeights)
	}
	return &clone
}

// Key returns the snapshot key selected by the configuration.
func (c *Config) Key() schema.SnapshotKey {
	return schema.SnapshotKey{CategoryID: c.CategoryID, Date: c.SnapshotDate}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processGeneration(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processCompetitorWeights(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must start with redis:// or rediss://")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the data selection and output fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.DataPath = strings.TrimSpace(input.Data)
	cfg.CategoryID = strings.TrimSpace(input.Category)
	cfg.SnapshotDate = strings.TrimSpace(input.Snapshot)
	cfg.TargetBrand = strings.TrimSpace(input.TargetBrand)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsAddr = input.MetricsAddr
	cfg.Question = strings.TrimSpace(input.Question)
	cfg.Query = strings.TrimSpace(input.Query)
	cfg.Product = strings.TrimSpace(input.Product)
	cfg.TableName = strings.TrimSpace(input.TableName)
	cfg.IncludeSameBrand = input.IncludeSameBrand

	cfg.OwnBrands = nil
	for _, b := range input.OwnBrands {
		for part := range strings.SplitSeq(b, ",") {
			if p := strings.TrimSpace(part); p != "" && !slices.Contains(cfg.OwnBrands, p) {
				cfg.OwnBrands = append(cfg.OwnBrands, p)
			}
		}
	}
	if len(cfg.OwnBrands) == 0 {
		cfg.OwnBrands = slices.Clone(DefaultOwnBrands)
	}

	color := input.Color
	if color == "" {
		color = "yes"
	}
	colors, err := ParseBoolString(color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "warn"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(input.LogFormat))
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "console"
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format '%s'. must be console, json", input.LogFormat)
	}
	return nil
}

// processGeneration validates the generation mode and the model settings.
func processGeneration(cfg *Config, input *ConfigRawInput) error {
	cfg.GenerationMode = schema.GenerationMode(strings.ToLower(strings.TrimSpace(input.Mode)))
	if cfg.GenerationMode == "" {
		cfg.GenerationMode = schema.HybridMode
	}
	if _, ok := schema.ValidGenerationModes[cfg.GenerationMode]; !ok {
		return fmt.Errorf("invalid mode '%s'. must be deterministic, hybrid, generative", input.Mode)
	}

	if input.ConfidenceThreshold < 0 || input.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be between 0.0 and 1.0 (received %.2f)", input.ConfidenceThreshold)
	}
	cfg.ConfidenceThreshold = input.ConfidenceThreshold

	if input.MaxToolRounds < 1 || input.MaxToolRounds > MaxToolRoundsLimit {
		return fmt.Errorf("max tool rounds must be between 1 and %d (received %d)", MaxToolRoundsLimit, input.MaxToolRounds)
	}
	cfg.MaxToolRounds = input.MaxToolRounds
	cfg.Rephrase = input.Rephrase

	if input.LLMRetries < 0 || input.LLMRetries > MaxLLMRetries {
		return fmt.Errorf("llm retries must be between 0 and %d (received %d)", MaxLLMRetries, input.LLMRetries)
	}
	cfg.LLM = LLMConfig{
		BaseURL: strings.TrimRight(strings.TrimSpace(input.LLMBaseURL), "/"),
		APIKey:  input.LLMAPIKey,
		Model:   strings.TrimSpace(input.LLMModel),
		Timeout: DefaultLLMTimeout,
		Retries: input.LLMRetries,
	}
	if input.LLMTimeout != "" {
		d, err := parsePositiveDuration("llm-timeout", input.LLMTimeout)
		if err != nil {
			return err
		}
		cfg.LLM.Timeout = d
	}
	if cfg.GenerationMode == schema.GenerativeMode && !cfg.LLM.Enabled() {
		return fmt.Errorf("generative mode requires --llm-base-url and --llm-model")
	}
	return nil
}

// processDurations parses the cache time-to-live settings.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	cfg.SnapshotTTL = DefaultSnapshotTTL
	if input.SnapshotTTL != "" {
		d, err := parsePositiveDuration("snapshot-ttl", input.SnapshotTTL)
		if err != nil {
			return err
		}
		cfg.SnapshotTTL = d
	}
	cfg.PersistTTL = DefaultPersistTTL
	if input.PersistTTL != "" {
		d, err := parsePositiveDuration("persist-ttl", input.PersistTTL)
		if err != nil {
			return err
		}
		cfg.PersistTTL = d
	}
	return nil
}

func parsePositiveDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", name, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive (received %s)", name, s)
	}
	return d, nil
}

// ProcessWeightsRawInput merges custom weights over the defaults.
// If validateSum is true, it validates that the merged weights sum to 100.
func ProcessWeightsRawInput(weights WeightsRawInput, validateSum bool) (map[string]float64, error) {
	result := make(map[string]float64, len(DefaultCompetitorWeights))
	maps.Copy(result, DefaultCompetitorWeights)

	overrides := map[string]*float64{
		"price":    weights.Price,
		"type":     weights.Type,
		"revenue":  weights.Revenue,
		"units":    weights.Units,
		"rating":   weights.Rating,
		"momentum": weights.Momentum,
	}
	sum := 0.0
	for _, key := range WeightKeys {
		if v := overrides[key]; v != nil {
			if *v < 0 {
				return nil, fmt.Errorf("competitor weight %s cannot be negative (received %.2f)", key, *v)
			}
			result[key] = *v
		}
		sum += result[key]
	}
	if validateSum && math.Abs(sum-100) > 0.001 {
		return nil, fmt.Errorf("competitor weights must sum to 100, got %.3f", sum)
	}
	return result, nil
}

// processCompetitorWeights computes the final competitor weights.
func processCompetitorWeights(cfg *Config, input *ConfigRawInput) error {
	weights, err := ProcessWeightsRawInput(input.Weights, true)
	if err != nil {
		return err
	}
	cfg.CompetitorWeights = weights
	return nil
}
