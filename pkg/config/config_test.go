package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/types"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ".xml", cfg.XMLExtension)
	assert.Equal(t, "Figure", cfg.FigureTag)
	assert.Equal(t, "ImageData", cfg.ImageDataTag)
	assert.Equal(t, "Test", cfg.ParentFolderName)
	assert.Equal(t, 0, cfg.DocumentLimit)
	assert.Equal(t, types.FailurePolicySkip, cfg.OnError)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout)
	assert.Equal(t, []string{ScopeDrive, ScopeSpreadsheets}, cfg.Scopes)
	assert.True(t, cfg.ShareParent)
}

func TestValidate(t *testing.T) {
	t.Run("Defaults need an xml dir", func(t *testing.T) {
		cfg := NewConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, alterrors.IsCode(err, alterrors.ErrCodeConfigInvalid))

		cfg.XMLDir = "data/"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Rejects bad values", func(t *testing.T) {
		cases := map[string]func(*Config){
			"negative limit":   func(c *Config) { c.DocumentLimit = -1 },
			"unknown policy":   func(c *Config) { c.OnError = "retry" },
			"zero timeout":     func(c *Config) { c.CallTimeout = 0 },
			"extension no dot": func(c *Config) { c.XMLExtension = "xml" },
			"bad scope":        func(c *Config) { c.Scopes = []string{"not a url"} },
			"no scopes":        func(c *Config) { c.Scopes = nil },
			"bad log level":    func(c *Config) { c.LogLevel = "loud" },
			"bad endpoint":     func(c *Config) { c.SheetsBaseURL = "sheets" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				cfg := NewConfig()
				cfg.XMLDir = "data/"
				mutate(cfg)
				assert.Error(t, cfg.Validate())
			})
		}
	})

	t.Run("Audit only checks corpus fields", func(t *testing.T) {
		cfg := NewConfig()
		cfg.XMLDir = "data/"
		cfg.Scopes = nil
		cfg.CredentialsFile = ""
		assert.NoError(t, cfg.ValidateForAudit())

		cfg.FigureTag = ""
		assert.Error(t, cfg.ValidateForAudit())
	})
}

func TestResolvedImageDir(t *testing.T) {
	cfg := NewConfig()
	cfg.XMLDir = "data/"
	assert.Equal(t, filepath.Join("data", "images"), cfg.ResolvedImageDir())

	cfg.XMLDir = "data"
	assert.Equal(t, filepath.Join("data", "images"), cfg.ResolvedImageDir())

	cfg.ImageDir = "/srv/pictures"
	assert.Equal(t, "/srv/pictures", cfg.ResolvedImageDir())
}

func TestLoad(t *testing.T) {
	t.Run("No file gives defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, NewConfig().ParentFolderName, cfg.ParentFolderName)
		assert.Equal(t, 60*time.Second, cfg.CallTimeout)
	})

	t.Run("YAML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "altsheet.yaml")
		content := `xml_dir: corpus/
parent_folder_name: Review
document_limit: 2
on_error: fail-fast
call_timeout: 15s
share_parent: false
scopes:
  - https://www.googleapis.com/auth/drive
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "corpus/", cfg.XMLDir)
		assert.Equal(t, "Review", cfg.ParentFolderName)
		assert.Equal(t, 2, cfg.DocumentLimit)
		assert.Equal(t, types.FailurePolicyFailFast, cfg.OnError)
		assert.Equal(t, 15*time.Second, cfg.CallTimeout)
		assert.False(t, cfg.ShareParent)
		assert.Equal(t, []string{ScopeDrive}, cfg.Scopes)
		assert.Equal(t, "Figure", cfg.FigureTag)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("JSON file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "altsheet.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"xml_dir": "x/", "figure_tag": "Fig"}`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "x/", cfg.XMLDir)
		assert.Equal(t, "Fig", cfg.FigureTag)
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "altsheet.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))
		t.Setenv("ALTSHEET_LOG_LEVEL", "debug")
		t.Setenv("ALTSHEET_DOCUMENT_LIMIT", "5")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 5, cfg.DocumentLimit)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/altsheet.yaml")
		require.Error(t, err)
		assert.True(t, alterrors.IsCode(err, alterrors.ErrCodeConfigNotFound))
	})

	t.Run("Unsupported format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "altsheet.toml")
		require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, alterrors.IsCode(err, alterrors.ErrCodeConfigError))
	})
}

func TestToYAMLFileRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.XMLDir = "corpus/"
	cfg.DocumentLimit = 3
	cfg.CallTimeout = 90 * time.Second
	cfg.OnError = types.FailurePolicyFailFast

	path := filepath.Join(t.TempDir(), "nested", "out.yaml")
	require.NoError(t, cfg.ToYAMLFile(path))
	assert.FileExists(t, path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.XMLDir, loaded.XMLDir)
	assert.Equal(t, cfg.DocumentLimit, loaded.DocumentLimit)
	assert.Equal(t, cfg.CallTimeout, loaded.CallTimeout)
	assert.Equal(t, cfg.OnError, loaded.OnError)
	assert.Equal(t, cfg.Scopes, loaded.Scopes)
}
