package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, 8080, cfg.Server.Port)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, 2*time.Second, cfg.Crawl.DelayBetweenImports())

	require.Equal(t, "https://graphql.anilist.co", cfg.Sources.AniList.BaseURL)
	require.Equal(t, 30, cfg.Sources.AniList.MaxRequests)
	require.Equal(t, 60*time.Second, cfg.Sources.AniList.RateLimit().Window)
	require.Equal(t, 3, cfg.Sources.Jikan.Retry().MaxAttempts)
	require.Equal(t, 15*time.Second, cfg.Sources.RAWG.Timeout())
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	payload := `
data_dir: /tmp/catalog
server:
  port: 9999
crawl:
  max_works_per_run: 3
sources:
  jikan:
    max_requests: 1
    window_ms: 4000
`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/catalog", cfg.DataDir)
	require.Equal(t, 9999, cfg.Server.Port)
	require.Equal(t, 3, cfg.Crawl.MaxWorksPerRun)
	require.Equal(t, 1, cfg.Sources.Jikan.MaxRequests)
	require.Equal(t, 4*time.Second, cfg.Sources.Jikan.RateLimit().Window)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	broken := cfg
	broken.DataDir = ""
	require.Error(t, broken.Validate())

	broken = cfg
	broken.Crawl.MaxWorksPerRun = 0
	require.Error(t, broken.Validate())

	broken = cfg
	broken.Sources.Jikan.MaxRequests = 0
	require.Error(t, broken.Validate())
}
