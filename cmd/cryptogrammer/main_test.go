package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/common/config"
	"github.com/amoylab/cryptogrammer/internal/notifier"
)

func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()

	f()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// lockedBuffer lets the watch loop and the test share output
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cryptogrammer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCmd_Version(t *testing.T) {
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	rootCmd.SetArgs([]string{"version"})
	out := captureOutput(func() { _ = rootCmd.Execute() })
	assert.Contains(t, out, "cryptogrammer version v")
}

func TestRootCmd_Help(t *testing.T) {
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	rootCmd.SetArgs([]string{"--help"})
	assert.NoError(t, rootCmd.Execute())
}

func TestTestCmd(t *testing.T) {
	t.Cleanup(func() {
		rootCmd.SetArgs([]string{})
		configPath = cnst.ServerYaml
	})

	t.Run("valid", func(t *testing.T) {
		path := writeConfig(t, "port: 9090\nnotifier:\n  type: log\n")
		rootCmd.SetArgs([]string{"test", "--conf", path})

		var err error
		out := captureOutput(func() { err = rootCmd.Execute() })
		require.NoError(t, err)
		assert.Contains(t, out, path)
		assert.Contains(t, out, "test is successful")
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeConfig(t, "port: 70000\n")
		rootCmd.SetArgs([]string{"test", "--conf", path})

		var err error
		captureOutput(func() { err = rootCmd.Execute() })
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		rootCmd.SetArgs([]string{"test", "--conf", filepath.Join(t.TempDir(), "absent.yaml")})

		var err error
		captureOutput(func() { err = rootCmd.Execute() })
		assert.Error(t, err)
	})
}

func TestWatch_RequiresWatchableNotifier(t *testing.T) {
	err := watch(context.Background(), zap.NewNop(), &config.NotifierConfig{Type: "log"}, io.Discard)
	assert.ErrorContains(t, err, "cannot be watched")
}

func TestWatch_PrintsEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.NotifierConfig{
		Type: "redis",
		Redis: config.NotifierRedisConfig{
			ClusterType: cnst.RedisClusterTypeSingle,
			Addr:        mr.Addr(),
			Stream:      "test:sessions",
			MaxLen:      100,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() { done <- watch(ctx, zap.NewNop(), cfg, out) }()

	pub, err := notifier.NewRedisNotifier(zap.NewNop(), cfg.Redis)
	require.NoError(t, err)
	defer pub.Close()

	// give the watcher a moment to issue its first XREAD
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, pub.Notify(context.Background(), notifier.Event{
		Action:    cnst.ActionCreated,
		SessionID: "123456",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	require.Eventually(t, func() bool {
		return gjson.Get(out.String(), "session").String() == "123456"
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "created", gjson.Get(out.String(), "event").String())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
