package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Category:            "obd2",
		Limit:               10,
		Precision:           1,
		Output:              "text",
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxToolRounds:       DefaultMaxToolRounds,
		LLMRetries:          DefaultLLMRetries,
	}
}

func ptr(v float64) *float64 { return &v }

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid mode", mutate: func(in *ConfigRawInput) { in.Mode = "creative" }, expectError: true},
		{name: "deterministic mode", mutate: func(in *ConfigRawInput) { in.Mode = "Deterministic" }},
		{name: "generative mode without model", mutate: func(in *ConfigRawInput) { in.Mode = "generative" }, expectError: true},
		{
			name: "generative mode with model",
			mutate: func(in *ConfigRawInput) {
				in.Mode = "generative"
				in.LLMBaseURL = "http://localhost:8080/v1/"
				in.LLMModel = "local-model"
			},
		},
		{name: "invalid limit (zero)", mutate: func(in *ConfigRawInput) { in.Limit = 0 }, expectError: true},
		{name: "invalid limit (too large)", mutate: func(in *ConfigRawInput) { in.Limit = 501 }, expectError: true},
		{name: "invalid precision (zero)", mutate: func(in *ConfigRawInput) { in.Precision = 0 }, expectError: true},
		{name: "invalid precision (too high)", mutate: func(in *ConfigRawInput) { in.Precision = 3 }, expectError: true},
		{name: "invalid output format", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{
			name: "parquet with file",
			mutate: func(in *ConfigRawInput) {
				in.Output = "parquet"
				in.OutputFile = "rows.parquet"
			},
		},
		{name: "threshold above one", mutate: func(in *ConfigRawInput) { in.ConfidenceThreshold = 1.5 }, expectError: true},
		{name: "tool rounds zero", mutate: func(in *ConfigRawInput) { in.MaxToolRounds = 0 }, expectError: true},
		{name: "tool rounds above limit", mutate: func(in *ConfigRawInput) { in.MaxToolRounds = 21 }, expectError: true},
		{name: "retries negative", mutate: func(in *ConfigRawInput) { in.LLMRetries = -1 }, expectError: true},
		{name: "invalid snapshot ttl", mutate: func(in *ConfigRawInput) { in.SnapshotTTL = "soon" }, expectError: true},
		{name: "negative persist ttl", mutate: func(in *ConfigRawInput) { in.PersistTTL = "-1h" }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "trace" }, expectError: true},
		{name: "invalid log format", mutate: func(in *ConfigRawInput) { in.LogFormat = "xml" }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "mongodb" }, expectError: true},
		{name: "redis history backend", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "redis" }, expectError: true},
		{
			name: "redis cache backend",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "redis"
				in.CacheDBConnect = "redis://localhost:6379/0"
			},
		},
		{
			name: "mysql cache backend without connection",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "mysql"
			},
			expectError: true,
		},
		{
			name: "history shares cache sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.HistoryBackend = "sqlite"
				in.CacheDBConnect = "/tmp/catiq.db"
				in.HistoryDBConnect = "/tmp/catiq.db"
			},
			expectError: true,
		},
		{name: "weights not summing to 100", mutate: func(in *ConfigRawInput) { in.Weights.Price = ptr(40) }, expectError: true},
		{
			name: "weights rebalanced",
			mutate: func(in *ConfigRawInput) {
				in.Weights.Price = ptr(35)
				in.Weights.Momentum = ptr(0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, schema.HybridMode, cfg.GenerationMode)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.SQLiteBackend, cfg.CacheBackend)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, DefaultSnapshotTTL, cfg.SnapshotTTL)
	assert.Equal(t, DefaultPersistTTL, cfg.PersistTTL)
	assert.Equal(t, DefaultLLMTimeout, cfg.LLM.Timeout)
	assert.Equal(t, DefaultOwnBrands, cfg.OwnBrands)
	assert.Equal(t, DefaultCompetitorWeights, cfg.CompetitorWeights)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.LLM.Enabled())
	assert.Equal(t, schema.SnapshotKey{CategoryID: "obd2"}, cfg.Key())
}

func TestProcessAndValidateParsing(t *testing.T) {
	input := validInput()
	input.OwnBrands = []string{"Acme, Zenith", "Acme"}
	input.SnapshotTTL = "5m"
	input.LLMTimeout = "10s"
	input.LLMBaseURL = " http://model.local/v1/ "
	input.LLMModel = "m"
	input.Color = "no"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []string{"Acme", "Zenith"}, cfg.OwnBrands)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotTTL)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "http://model.local/v1", cfg.LLM.BaseURL)
	assert.True(t, cfg.LLM.Enabled())
	assert.False(t, cfg.UseColors)
}

func TestProcessWeightsRawInput(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		weights, err := ProcessWeightsRawInput(WeightsRawInput{}, true)
		require.NoError(t, err)
		assert.Equal(t, DefaultCompetitorWeights, weights)
	})

	t.Run("partial override without sum validation", func(t *testing.T) {
		weights, err := ProcessWeightsRawInput(WeightsRawInput{Rating: ptr(30)}, false)
		require.NoError(t, err)
		assert.InDelta(t, 30, weights["rating"], 0.001)
		assert.InDelta(t, 25, weights["price"], 0.001)
	})

	t.Run("negative weight", func(t *testing.T) {
		_, err := ProcessWeightsRawInput(WeightsRawInput{Type: ptr(-5)}, false)
		assert.Error(t, err)
	})

	t.Run("defaults are not mutated", func(t *testing.T) {
		_, err := ProcessWeightsRawInput(WeightsRawInput{Price: ptr(50), Type: ptr(0)}, true)
		require.NoError(t, err)
		assert.InDelta(t, 25, DefaultCompetitorWeights["price"], 0.001)
	})
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/catiq", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/catiq", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=catiq", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"redis valid", schema.RedisBackend, "redis://localhost:6379/0", false},
		{"redis tls", schema.RedisBackend, "rediss://cache.internal:6380/1", false},
		{"redis missing scheme", schema.RedisBackend, "localhost:6379", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	clone := cfg.Clone()
	clone.OwnBrands[0] = "Other"
	clone.CompetitorWeights["price"] = 99

	assert.Equal(t, "Innova", cfg.OwnBrands[0])
	assert.InDelta(t, 25, cfg.CompetitorWeights["price"], 0.001)
}

func TestDistinctDefaultDBFiles(t *testing.T) {
	assert.NotEqual(t, GetCacheDBFilePath(), GetHistoryDBFilePath())
	assert.Equal(t, ".catiq_cache.db", filepath.Base(GetCacheDBFilePath()))
	assert.Equal(t, ".catiq_history.db", filepath.Base(GetHistoryDBFilePath()))
}
