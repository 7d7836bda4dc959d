package viper_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/csvstory"
	"github.com/fwojciec/csvstory/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c, err := viper.Load("")

	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:5000", c.BackendURL)
	assert.Equal(t, 5*time.Minute, c.HTTPTimeout())
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, "iqr", c.Form.Method)
	assert.InDelta(t, 1.5, c.Form.KIQR, 1e-9)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `backend_url: http://analysis.internal:8080
http_timeout_sec: 30
workers: 8
form:
  method: mad
  top_n: 12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CSVSTORY_WORKERS", "2")
	t.Setenv("CSVSTORY_FORM_MAD_THR", "4.5")

	c, err := viper.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "http://analysis.internal:8080", c.BackendURL)
	assert.Equal(t, 30*time.Second, c.HTTPTimeout())
	assert.Equal(t, 2, c.Workers, "env overrides file")
	assert.Equal(t, "mad", c.Form.Method)
	assert.Equal(t, 12, c.Form.TopN)
	assert.InDelta(t, 4.5, c.Form.MADThr, 1e-9)
	assert.InDelta(t, 2.5, c.Form.ZThr, 1e-9, "unset keys keep defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := viper.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_format: xml\n"), 0o644))

	_, err := viper.Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*viper.Config)
	}{
		{"empty backend", func(c *viper.Config) { c.BackendURL = "" }},
		{"negative timeout", func(c *viper.Config) { c.HTTPTimeoutSec = -1 }},
		{"no workers", func(c *viper.Config) { c.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := viper.Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, viper.Default().Validate())
}

func TestConfig_ApplyForm(t *testing.T) {
	t.Parallel()

	c := viper.Default()
	c.Form.Method = "z"
	c.Form.ChartTheme = "midnight"
	c.Form.TopN = 5
	c.Form.ChartTypes = []string{"Pastel"}

	f := c.ApplyForm(csvstory.DefaultForm())

	assert.Equal(t, "z", f.Method)
	assert.Equal(t, "midnight", f.Sequence.Theme)
	assert.Equal(t, "midnight", f.Templates.Theme)
	assert.Equal(t, 5, f.Templates.TopN)
	assert.Equal(t, []string{"Pastel"}, f.Templates.ChartTypes)
	assert.Equal(t, csvstory.SentinelMetric, f.MetricChoice, "selections stay at their defaults")
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := viper.Default()
	c.BackendURL = "https://csv.example.com"
	c.Form.ChartTypes = []string{"Heatmap", "Violín"}

	require.NoError(t, viper.Save(c, path))
	loaded, err := viper.Load(path)

	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
