package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func profileBody(rate int) string {
	return fmt.Sprintf("version = 1\n\n[[device]]\nname = \"Scarlett 2i2 USB\"\nsample_rate = %d\n", rate)
}

// startWatcher writes an initial profile and starts a watcher on it.
func startWatcher(t *testing.T, debounce time.Duration, opts ...WatcherOption[Profile]) (string, *Watcher[Profile]) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte(profileBody(44100)), 0o644); err != nil {
		t.Fatal(err)
	}

	opts = append([]WatcherOption[Profile]{WithDebounce[Profile](debounce)}, opts...)
	w := NewConfigWatcher(path, LoadProfile, newTestLogger(), opts...)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	})

	// Wait for watcher to initialize
	time.Sleep(50 * time.Millisecond)
	return path, w
}

func receiveProfile(t *testing.T, ch <-chan Profile) Profile {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for profile reload")
		return Profile{}
	}
}

func TestConfigWatcher_BasicReload(t *testing.T) {
	received := make(chan Profile, 1)
	path, w := startWatcher(t, 50*time.Millisecond)
	w.OnReload(func(p Profile) { received <- p })

	if err := os.WriteFile(path, []byte(profileBody(48000)), 0o644); err != nil {
		t.Fatal(err)
	}

	p := receiveProfile(t, received)
	if len(p.Devices) != 1 || p.Devices[0].SampleRate != 48000 {
		t.Errorf("got %+v, want one device at 48000", p)
	}
}

func TestConfigWatcher_FollowsAtomicReplace(t *testing.T) {
	received := make(chan Profile, 4)
	path, w := startWatcher(t, 50*time.Millisecond)
	w.OnReload(func(p Profile) { received <- p })

	for _, rate := range []int{88200, 96000} {
		profile := Profile{Devices: []DeviceProfile{{Name: "Scarlett 2i2 USB", SampleRate: float64(rate)}}}
		if err := SaveProfile(path, profile); err != nil {
			t.Fatal(err)
		}
		if p := receiveProfile(t, received); p.Devices[0].SampleRate != float64(rate) {
			t.Errorf("after replace got %v, want %d", p.Devices[0].SampleRate, rate)
		}
	}
}

func TestConfigWatcher_IgnoresSiblingFiles(t *testing.T) {
	var count atomic.Int32
	path, w := startWatcher(t, 30*time.Millisecond)
	w.OnReload(func(Profile) { count.Add(1) })

	sibling := filepath.Join(filepath.Dir(path), "notes.txt")
	if err := os.WriteFile(sibling, []byte("unrelated"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no reloads, got %d", got)
	}
}

func TestConfigWatcher_Unsubscribe(t *testing.T) {
	var count1, count2 atomic.Int32
	path, w := startWatcher(t, 50*time.Millisecond)

	w.OnReload(func(Profile) { count1.Add(1) })
	unsub2 := w.OnReload(func(Profile) { count2.Add(1) })

	if err := os.WriteFile(path, []byte(profileBody(48000)), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)

	unsub2()
	unsub2()

	if err := os.WriteFile(path, []byte(profileBody(96000)), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)

	if got := count1.Load(); got != 2 {
		t.Errorf("handler1: expected 2 calls, got %d", got)
	}
	if got := count2.Load(); got != 1 {
		t.Errorf("handler2: expected 1 call, got %d", got)
	}
}

func TestConfigWatcher_ErrorHandler(t *testing.T) {
	errorReceived := make(chan error, 1)
	profileReceived := make(chan Profile, 1)
	path, w := startWatcher(t, 50*time.Millisecond, WithErrorHandler[Profile](func(err error) {
		errorReceived <- err
	}))
	w.OnReload(func(p Profile) { profileReceived <- p })

	if err := os.WriteFile(path, []byte("invalid toml [[["), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errorReceived:
	case <-profileReceived:
		t.Fatal("reload handler should not be called on error")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestConfigWatcher_Debounce(t *testing.T) {
	var count atomic.Int32
	var lastRate atomic.Int64
	path, w := startWatcher(t, 200*time.Millisecond)
	w.OnReload(func(p Profile) {
		count.Add(1)
		lastRate.Store(int64(p.Devices[0].SampleRate))
	})

	for _, rate := range []int{32000, 44100, 48000, 88200, 96000} {
		if err := os.WriteFile(path, []byte(profileBody(rate)), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(40 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 debounced call, got %d", got)
	}
	if got := lastRate.Load(); got != 96000 {
		t.Errorf("expected final rate 96000, got %d", got)
	}
}

func TestConfigWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte(profileBody(44100)), 0o644); err != nil {
		t.Fatal(err)
	}

	var count atomic.Int32
	w := NewConfigWatcher(path, LoadProfile, newTestLogger(), WithDebounce[Profile](50*time.Millisecond))
	w.OnReload(func(Profile) { count.Add(1) })

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(profileBody(48000)), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected 0 calls after stop, got %d", got)
	}
}

func TestConfigWatcher_ContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte(profileBody(44100)), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewConfigWatcher(path, LoadProfile, newTestLogger())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("watch loop did not exit on context cancel")
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
}
