// Copyright Awele Larsen, 2026. All rights reserved.

package rotate

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awlarsen/paperfetch/pkg/types"
)

// fakeExecutor records commands and serves canned results per verb.
type fakeExecutor struct {
	lookPathErr error
	failConnect bool
	statusOut   string
	calls       []string
}

func (f *fakeExecutor) LookPath(string) (string, error) {
	return "/usr/bin/vpnctl", f.lookPathErr
}

func (f *fakeExecutor) Run(_ time.Duration, _ string, args ...string) (string, error) {
	f.calls = append(f.calls, strings.Join(args, " "))
	switch args[0] {
	case "connect":
		if f.failConnect {
			return "", errors.New("no servers available")
		}
	case "status":
		return f.statusOut, nil
	}
	return "", nil
}

func newTestScheduler(cfg types.VPNConfig, exec *fakeExecutor) *Scheduler {
	s := New(cfg, nil, io.Discard)
	s.exec = exec
	s.now = func() time.Time { return time.Unix(1000, 0) }
	s.sleep = func(time.Duration) {}
	s.pick = func(int) int { return 0 }
	return s
}

func TestShouldRotateProactively(t *testing.T) {
	s := newTestScheduler(types.VPNConfig{RotateEveryN: 20}, &fakeExecutor{})
	for _, n := range []int{20, 40, 60} {
		assert.True(t, s.ShouldRotateProactively(n), "n=%d", n)
	}
	for _, n := range []int{0, 19, 21} {
		assert.False(t, s.ShouldRotateProactively(n), "n=%d", n)
	}

	off := newTestScheduler(types.VPNConfig{RotateEveryN: 0}, &fakeExecutor{})
	assert.False(t, off.ShouldRotateProactively(20))
}

func TestRotateSuccess(t *testing.T) {
	exec := &fakeExecutor{}
	s := newTestScheduler(types.VPNConfig{MaxRotationFailures: 3}, exec)

	require.True(t, s.Rotate())
	assert.Equal(t, []string{"disconnect", "connect " + DefaultLocations[0]}, exec.calls)
	assert.False(t, s.HasFailedPermanently())
}

func TestRotatePermanentDisableIsSticky(t *testing.T) {
	exec := &fakeExecutor{failConnect: true}
	s := newTestScheduler(types.VPNConfig{MaxRotationFailures: 2}, exec)

	assert.False(t, s.Rotate())
	assert.False(t, s.HasFailedPermanently())
	assert.False(t, s.Rotate())
	assert.True(t, s.HasFailedPermanently())

	// A later successful rotation does not lift the latch.
	exec.failConnect = false
	assert.True(t, s.Rotate())
	assert.True(t, s.HasFailedPermanently())
}

func TestRotateCooldownSleepsRemainder(t *testing.T) {
	exec := &fakeExecutor{}
	s := newTestScheduler(types.VPNConfig{
		MinRotationInterval: 30 * time.Second,
		MaxRotationFailures: 3,
	}, exec)

	var slept []time.Duration
	s.sleep = func(d time.Duration) { slept = append(slept, d) }

	base := time.Unix(1000, 0)
	s.now = func() time.Time { return base }
	require.True(t, s.Rotate())

	// 10s into the 30s cooldown; the second rotation waits out 20s.
	slept = nil
	s.now = func() time.Time { return base.Add(10 * time.Second) }
	require.True(t, s.Rotate())
	require.NotEmpty(t, slept)
	assert.Equal(t, 20*time.Second, slept[0])
}

func TestPickNextSequentialWraps(t *testing.T) {
	pool := []string{"a", "b", "c"}
	s := newTestScheduler(types.VPNConfig{Strategy: "sequential", Locations: pool}, &fakeExecutor{})

	var picked []string
	for i := 0; i < 4; i++ {
		picked = append(picked, s.pickNext())
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, picked)
}

func TestPickNextSmartExcludesRecent(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e", "f", "g"}
	s := newTestScheduler(types.VPNConfig{Strategy: "smart", Locations: pool}, &fakeExecutor{})
	s.recent = []string{"a", "b", "c", "d", "e"}

	// pick(0) takes the first available; the five most recent are out.
	assert.Equal(t, "f", s.pickNext())

	// Only the last five recents count, so "a" is available again.
	s.recent = []string{"a", "b", "c", "d", "e", "f"}
	assert.Equal(t, "a", s.pickNext())
}

func TestPickNextSmartFullPoolFallback(t *testing.T) {
	pool := []string{"a", "b"}
	s := newTestScheduler(types.VPNConfig{Strategy: "smart", Locations: pool}, &fakeExecutor{})
	s.recent = []string{"a", "b"}

	assert.Equal(t, "a", s.pickNext())
}

func TestPickNextRandom(t *testing.T) {
	pool := []string{"a", "b", "c"}
	s := newTestScheduler(types.VPNConfig{Strategy: "random", Locations: pool}, &fakeExecutor{})
	s.pick = func(n int) int { return n - 1 }

	assert.Equal(t, "c", s.pickNext())
}

func TestIsAvailable(t *testing.T) {
	s := newTestScheduler(types.VPNConfig{}, &fakeExecutor{})
	assert.True(t, s.IsAvailable())

	missing := newTestScheduler(types.VPNConfig{}, &fakeExecutor{lookPathErr: errors.New("not found")})
	assert.False(t, missing.IsAvailable())
}

func TestGetStatusParsesLocation(t *testing.T) {
	exec := &fakeExecutor{statusOut: "Connected to usa - new york\n"}
	s := newTestScheduler(types.VPNConfig{}, exec)
	s.client = nil

	// ExternalIP is skipped by pointing the check list at nothing.
	oldServices := IPCheckServices
	IPCheckServices = nil
	defer func() { IPCheckServices = oldServices }()

	st := s.GetStatus()
	assert.True(t, st.Connected)
	assert.Equal(t, "usa - new york", st.Location)
	assert.Empty(t, st.IP)
}

func TestGetStatusNotConnected(t *testing.T) {
	exec := &fakeExecutor{statusOut: "Not connected\n"}
	s := newTestScheduler(types.VPNConfig{}, exec)

	oldServices := IPCheckServices
	IPCheckServices = nil
	defer func() { IPCheckServices = oldServices }()

	assert.False(t, s.GetStatus().Connected)
}
