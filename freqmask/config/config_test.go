package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/freqmask/freqmask"
	"github.com/ZanzyTHEbar/freqmask/freqmask/collate"
	"github.com/ZanzyTHEbar/freqmask/freqmask/corpus"
	"github.com/ZanzyTHEbar/freqmask/freqmask/tokenizer"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	// Clear viper state leaked by earlier tests
	viper.Reset()

	// Save original directory
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	// Create temporary directory for testing
	tempDir, err := os.MkdirTemp("", "freqmask-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	// Change to temp directory
	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), 0.15, cfg.Masking.BaseProbability)
	assert.Equal(suite.T(), uint64(5), cfg.Masking.RareThreshold)
	assert.Equal(suite.T(), 512, cfg.Masking.MaxSeqLen)
	assert.True(suite.T(), cfg.Masking.ClampProbability)
	assert.False(suite.T(), cfg.Masking.KeepSpecial)
	assert.Equal(suite.T(), internal.DefaultStoreDSN, cfg.Store.DSN)
	assert.Equal(suite.T(), internal.DefaultStoreType, cfg.Store.Type)
	assert.Equal(suite.T(), "dev", cfg.Model.Provider)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
masking:
  baseProbability: 0.25
  rareThreshold: 3
  maxSeqLen: 128
  clampProbability: false
  keepSpecial: true
  seed: 42

corpus:
  vocabPath: "./vocab.txt"
  maxWorkers: 4

store:
  dsn: "tables-test.db"
  type: "libsql"

model:
  provider: "onnx"
  modelPath: "./model.onnx"
`

	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), 0.25, cfg.Masking.BaseProbability)
	assert.Equal(suite.T(), uint64(3), cfg.Masking.RareThreshold)
	assert.Equal(suite.T(), 128, cfg.Masking.MaxSeqLen)
	assert.False(suite.T(), cfg.Masking.ClampProbability)
	assert.True(suite.T(), cfg.Masking.KeepSpecial)
	assert.Equal(suite.T(), int64(42), cfg.Masking.Seed)

	assert.Equal(suite.T(), "./vocab.txt", cfg.Corpus.VocabPath)
	assert.Equal(suite.T(), 4, cfg.Corpus.MaxWorkers)
	assert.Equal(suite.T(), "tables-test.db", cfg.Store.DSN)
	assert.Equal(suite.T(), "onnx", cfg.Model.Provider)
	assert.Equal(suite.T(), "./model.onnx", cfg.Model.ModelPath)
}

func (suite *ConfigTestSuite) TestMaskingOptionsSeed() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	// zero seed keeps the collator's own default source
	assert.Empty(suite.T(), cfg.MaskingOptions())

	cfg.Masking.Seed = 42
	cfg.Masking.RareThreshold = 2
	cfg.Masking.MaxSeqLen = 32
	require.Len(suite.T(), cfg.MaskingOptions(), 1)

	wp, err := tokenizer.NewWordPiece(
		[]string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]", "the", "cat"}, 32)
	require.NoError(suite.T(), err)
	table := corpus.FrequencyTableFromCounts(map[int64]uint64{5: 10, 6: 1})

	first, err := collate.NewCollator(wp, table, cfg.ToMasking(), cfg.MaskingOptions()...)
	require.NoError(suite.T(), err)
	second, err := collate.NewCollator(wp, table, cfg.ToMasking(), cfg.MaskingOptions()...)
	require.NoError(suite.T(), err)

	examples := []string{"the cat", "the the"}
	a, err := first.Collate(examples)
	require.NoError(suite.T(), err)
	b, err := second.Collate(examples)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), a.InputIDs, b.InputIDs)
	assert.Equal(suite.T(), a.Labels, b.Labels)
}

func (suite *ConfigTestSuite) TestToMasking() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	mc := cfg.ToMasking()
	assert.Equal(suite.T(), cfg.Masking.BaseProbability, mc.BaseProbability)
	assert.Equal(suite.T(), cfg.Masking.RareThreshold, mc.RareThreshold)
	assert.Equal(suite.T(), cfg.Masking.MaxSeqLen, mc.MaxSeqLen)
	assert.Equal(suite.T(), cfg.Masking.ClampProbability, mc.ClampProbability)
	assert.Equal(suite.T(), cfg.Masking.KeepSpecial, mc.KeepSpecial)
}
