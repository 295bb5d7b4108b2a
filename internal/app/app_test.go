package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"charabase/internal/app"
	"charabase/internal/catalog"
	"charabase/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.DataDir = t.TempDir()
	cfg.Logging.Development = false
	return cfg
}

func TestNew_WiresAllServices(t *testing.T) {
	a, err := app.New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Logger())
	require.NotNil(t, a.Store())
	require.NotNil(t, a.WorkCache())

	for _, workType := range catalog.WorkTypes() {
		client, err := a.Client(workType)
		require.NoError(t, err, "type %s must have a primary client", workType)
		require.NotNil(t, client)
	}
}

func TestClientNamed(t *testing.T) {
	a, err := app.New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	client, err := a.ClientNamed("jikan", catalog.TypeAnime)
	require.NoError(t, err)
	require.Equal(t, "jikan", client.Name())

	client, err = a.ClientNamed("anilist", catalog.TypeManga)
	require.NoError(t, err)
	require.Equal(t, "anilist", client.Name())

	client, err = a.ClientNamed("", catalog.TypeGame)
	require.NoError(t, err)
	require.Equal(t, "rawg", client.Name())

	_, err = a.ClientNamed("jikan", catalog.TypeGame)
	require.Error(t, err, "jikan has no game catalog")
}
