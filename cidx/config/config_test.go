package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/callindex/cidx"

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
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "cidx-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	// Run from an empty directory so no stray config.yaml is picked up
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

func (suite *ConfigTestSuite) writeConfig(name, content string) string {
	path := filepath.Join(suite.tempDir, name)
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultSwitchesFile, cfg.Data.SwitchesFile)
	assert.Equal(suite.T(), internal.DefaultRecordsFile, cfg.Data.RecordsFile)
	assert.Equal(suite.T(), internal.DefaultLogLevel, cfg.Log.Level)
	assert.Equal(suite.T(), internal.DefaultTimeLayout, cfg.Query.TimeLayout)
	assert.False(suite.T(), cfg.Query.ValidateOnLoad)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configFile := suite.writeConfig("config.yaml", `
data:
  switchesFile: "./fixtures/switches.txt"
  recordsFile: "./fixtures/calls.txt"
log:
  level: debug
query:
  validateOnLoad: true
`)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "./fixtures/switches.txt", cfg.Data.SwitchesFile)
	assert.Equal(suite.T(), "./fixtures/calls.txt", cfg.Data.RecordsFile)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
	assert.True(suite.T(), cfg.Query.ValidateOnLoad)
	assert.Equal(suite.T(), internal.DefaultTimeLayout, cfg.Query.TimeLayout, "unset keys keep their defaults")
}

func (suite *ConfigTestSuite) TestLoadConfigFromSearchPath() {
	suite.writeConfig("config.yaml", `
data:
  recordsFile: "found-in-cwd.txt"
`)

	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "found-in-cwd.txt", cfg.Data.RecordsFile)
}

func (suite *ConfigTestSuite) TestEnvironmentOverride() {
	suite.T().Setenv("CIDX_LOG_LEVEL", "warn")
	suite.T().Setenv("CIDX_DATA_SWITCHESFILE", "/srv/switches.txt")

	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "warn", cfg.Log.Level)
	assert.Equal(suite.T(), "/srv/switches.txt", cfg.Data.SwitchesFile)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	configFile := suite.writeConfig("malformed.yaml", `
data:
  switchesFile: "./switches.txt"
  invalid_yaml: [unclosed bracket
`)

	cfg, err := LoadConfig(configFile)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigRejectsUnknownLevel() {
	configFile := suite.writeConfig("config.yaml", `
log:
  level: chatty
`)

	cfg, err := LoadConfig(configFile)

	require.ErrorIs(suite.T(), err, ErrInvalidConfig)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestAppConfigGlobal() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), cfg.Data.RecordsFile, AppConfig.Data.RecordsFile)
	assert.Equal(suite.T(), cfg.Query.TimeLayout, AppConfig.Query.TimeLayout)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "complete",
			cfg: Config{
				Data:  DataConfig{SwitchesFile: "s", RecordsFile: "r"},
				Query: QueryConfig{TimeLayout: internal.DefaultTimeLayout},
			},
		},
		{
			name: "missing records file",
			cfg: Config{
				Data:  DataConfig{SwitchesFile: "s"},
				Query: QueryConfig{TimeLayout: internal.DefaultTimeLayout},
			},
			wantErr: true,
		},
		{
			name: "missing time layout",
			cfg: Config{
				Data: DataConfig{SwitchesFile: "s", RecordsFile: "r"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// BenchmarkLoadConfig benchmarks config loading performance
func BenchmarkLoadConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		cfg, err := LoadConfig("")
		if err != nil {
			b.Fatal(err)
		}
		_ = cfg
	}
}
