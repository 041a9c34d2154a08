package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/gateway/internal/config"
)

func TestServerListenAndServeThenShutdown(t *testing.T) {
	g := newTestGateway(t)
	srv := NewServer(g)
	srv.http.Addr = "127.0.0.1:0" // ephemeral port, avoids colliding with a real gateway instance

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop after Shutdown")
	}
}

func TestListenAddrHonorsLANAccess(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", listenAddr(&config.Config{}))
	assert.Equal(t, "0.0.0.0:9090", listenAddr(&config.Config{Network: config.NetworkConfig{Port: 9090, AllowLANAccess: true}}))
}
