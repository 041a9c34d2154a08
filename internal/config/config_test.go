package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveAuthMode(t *testing.T) {
	cases := []struct {
		name   string
		auth   AuthMode
		lan    bool
		expect AuthMode
	}{
		{"off passthrough", AuthOff, false, AuthOff},
		{"strict passthrough", AuthStrict, true, AuthStrict},
		{"all_except_health passthrough", AuthAllExceptHealth, false, AuthAllExceptHealth},
		{"auto with lan", AuthAuto, true, AuthAllExceptHealth},
		{"auto without lan", AuthAuto, false, AuthOff},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{Auth: AuthSection{Mode: tc.auth}, Network: NetworkConfig{AllowLANAccess: tc.lan}}
			assert.Equal(t, tc.expect, c.EffectiveAuthMode())
		})
	}
}

func TestZaiEligible(t *testing.T) {
	assert.False(t, ZaiConfig{}.Eligible())
	assert.False(t, ZaiConfig{Enabled: true}.Eligible())
	assert.False(t, ZaiConfig{Enabled: true, BaseURL: "https://z.ai"}.Eligible())
	assert.True(t, ZaiConfig{Enabled: true, BaseURL: "https://z.ai", APIKey: "k"}.Eligible())
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"network":{"port":8080}}`))
	require.NoError(t, err)
	assert.Equal(t, AuthStrict, cfg.Auth.Mode)
	assert.Equal(t, DispatchOff, cfg.Zai.DispatchMode)
	assert.Equal(t, URLNormalizeOff, cfg.Zai.WebReaderNormalization)
	assert.Equal(t, int(DefaultRequestTimeout.Seconds()), cfg.Network.RequestTimeoutSeconds)
}

func TestStoreHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gui_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"network":{"port":8080}}`), 0o644))

	store, err := NewStore(path)
	require.NoError(t, err)
	require.Equal(t, 8080, store.Snapshot().Network.Port)

	store.Watch(10 * time.Millisecond)
	defer store.Stop()

	time.Sleep(15 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"network":{"port":9090}}`), 0o644))

	require.Eventually(t, func() bool {
		return store.Snapshot().Network.Port == 9090
	}, time.Second, 5*time.Millisecond)
}
