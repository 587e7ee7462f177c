package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/centraunit/scopetree/lifecycle"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "human", cfg.Logging.Format)
	assert.Equal(t, "root", cfg.Tree.RootName)
	assert.Equal(t, TableDefault, cfg.Lifecycle.Table)
	assert.Equal(t, "screens.yaml", cfg.Manifest.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
  format: json
tree:
  root_name: app
lifecycle:
  table: activity
  extra:
    attach: detach
manifest:
  path: gallery.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "app", cfg.Tree.RootName)
	assert.Equal(t, "gallery.yaml", cfg.Manifest.Path)

	table, err := cfg.Lifecycle.BuildTable()
	require.NoError(t, err)
	got, err := table.Corresponding("ATTACH")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Event("DETACH"), got)
	got, err = table.Corresponding(lifecycle.Stop)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Destroy, got)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SCOPETREE_TREE_ROOT_NAME", "env-root")
	t.Setenv("SCOPETREE_LOGGING_LEVEL", "warn")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "env-root", cfg.Tree.RootName)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "trace"
	cfg.Logging.Format = "xml"
	cfg.Tree.RootName = "a/b"
	cfg.Lifecycle.Table = "fragment"
	cfg.Lifecycle.Extra = map[string]string{"attach": ""}

	errs := cfg.Validate()
	require.Len(t, errs, 5)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{
		"logging.level",
		"logging.format",
		"tree.root_name",
		"lifecycle.table",
		"lifecycle.extra",
	}, fields)

	msg := ValidationErrors(errs).Error()
	assert.True(t, strings.HasPrefix(msg, "5 validation errors:"))
}

func TestLoadRejectsInvalid(t *testing.T) {
	v := newViper(t)
	v.Set("lifecycle.table", "fragment")

	_, err := Load(v)
	require.Error(t, err)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 1)
	assert.Contains(t, err.Error(), "lifecycle.table")
}

func TestBuildTableDefault(t *testing.T) {
	cfg := Default()
	table, err := cfg.Lifecycle.BuildTable()
	require.NoError(t, err)
	assert.Equal(t, lifecycle.DefaultTable(), table)
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/scopetree", ConfigDir())
	assert.Equal(t, "/tmp/xdg/scopetree/config.yaml", ConfigFile())
}
