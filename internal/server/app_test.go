package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/config"
	"github.com/dmitrijs2005/housing/internal/server/notify"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func testConfig(t *testing.T) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = freeAddr(t)
	c.GRPCAddr = freeAddr(t)
	c.LogLevel = "error"
	return c
}

func TestOpenStore_EmptyDSNUsesMemory(t *testing.T) {
	c := testConfig(t)
	rm, err := OpenStore(context.Background(), c, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &repomanager.MemoryRepositoryManager{}, rm)
}

func TestOpenStore_BadDSN(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDSN = "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := OpenStore(ctx, c, logging.NewNop())
	assert.Error(t, err)
}

func TestMailNotifier(t *testing.T) {
	c := testConfig(t)
	assert.IsType(t, &notify.Log{}, MailNotifier(c, logging.NewNop()))

	c.SMTPHost = "smtp.example.com"
	assert.IsType(t, &notify.SMTP{}, MailNotifier(c, logging.NewNop()))
}

func TestApp_RunServesAndStops(t *testing.T) {
	c := testConfig(t)
	c.AdminEmail = "admin@example.com"
	c.AdminPassword = "Correct-Horse-Battery-Staple-42"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, c)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + c.HTTPAddr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	admin, err := app.repomanager.Users().GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
