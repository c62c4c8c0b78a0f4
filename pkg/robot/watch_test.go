package robot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
)

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	test.That(t, DefaultConfig().SaveTo(path), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 10)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, zaptest.NewLogger(t).Sugar(), func(cfg *Config) {
			changes <- cfg
		})
	}()

	// An invalid file is skipped.
	test.That(t, os.WriteFile(path, []byte(`{"arm": {"speed": 7}}`), 0o644), test.ShouldBeNil)

	updated := DefaultConfig()
	updated.Arm.Speed = 0.3

	// Keep rewriting until the watcher, which starts asynchronously, sees it.
	deadline := time.After(5 * time.Second)
	var got *Config
	for got == nil {
		test.That(t, updated.SaveTo(path), test.ShouldBeNil)
		select {
		case got = <-changes:
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no reload seen")
		}
	}
	test.That(t, got.Arm.Speed, test.ShouldEqual, 0.3)

	cancel()
	test.That(t, <-done, test.ShouldBeNil)
}

func TestWatchConfigMissingDir(t *testing.T) {
	err := WatchConfig(context.Background(), filepath.Join(t.TempDir(), "nope", "x.json"), nil, func(*Config) {})
	test.That(t, err, test.ShouldNotBeNil)
}
