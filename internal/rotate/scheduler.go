// Copyright Awele Larsen, 2026. All rights reserved.

// Package rotate manages VPN exit-identity rotation through an external
// CLI tool (ExpressVPN by default). Rotation is used to shed rate
// limits during Scholar and CORE phases, either proactively at a fixed
// paper cadence or reactively on a rate-limit signal.
package rotate

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/awlarsen/paperfetch/pkg/types"
)

// DefaultLocations is the identity pool used when the config names none.
var DefaultLocations = []string{
	"usa - new york",
	"uk - london",
	"canada - toronto",
	"germany - frankfurt",
	"netherlands - amsterdam",
	"sweden",
	"switzerland",
	"france - paris",
}

// IPCheckServices is queried in order; the first success wins.
var IPCheckServices = []string{
	"https://api.ipify.org",
	"https://icanhazip.com",
	"https://ifconfig.me/ip",
}

// Status describes the connection as reported by the tool plus the
// externally observed address.
type Status struct {
	Connected bool
	Location  string
	IP        string
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(timeout time.Duration, name string, args ...string) (stdout string, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(timeout time.Duration, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var sb strings.Builder
	cmd.Stdout = &sb

	if err := cmd.Start(); err != nil {
		return "", err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return sb.String(), err
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		<-done
		return sb.String(), fmt.Errorf("%s timed out after %s", name, timeout)
	}
}

// Scheduler owns the rotation state for one pipeline run. It is used by
// one phase at a time and is never persisted.
type Scheduler struct {
	cfg    types.VPNConfig
	client *http.Client
	exec   executor
	w      io.Writer

	lastRotation    time.Time
	recent          []string
	sequentialIndex int
	failures        int
	failedForGood   bool

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)
	pick  func(n int) int
}

// New builds a Scheduler from config, filling in defaults for an empty
// location pool.
func New(cfg types.VPNConfig, client *http.Client, w io.Writer) *Scheduler {
	if cfg.Tool == "" {
		cfg.Tool = "expressvpnctl"
	}
	if len(cfg.Locations) == 0 {
		cfg.Locations = DefaultLocations
	}
	return &Scheduler{
		cfg:    cfg,
		client: client,
		exec:   &osExecutor{},
		w:      w,
		now:    time.Now,
		sleep:  time.Sleep,
		pick:   rand.Intn,
	}
}

// IsAvailable reports whether the rotation tool is installed and
// responds to a version query.
func (s *Scheduler) IsAvailable() bool {
	if _, err := s.exec.LookPath(s.cfg.Tool); err != nil {
		return false
	}
	_, err := s.exec.Run(5*time.Second, s.cfg.Tool, "--version")
	return err == nil
}

// ExternalIP returns the current external address, or "" when every
// check service fails.
func (s *Scheduler) ExternalIP() string {
	for _, service := range IPCheckServices {
		resp, err := s.client.Get(service)
		if err != nil {
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			continue
		}
		return strings.TrimSpace(string(body))
	}
	return ""
}

// GetStatus queries the tool for connection state and pairs it with the
// externally observed IP.
func (s *Scheduler) GetStatus() Status {
	out, err := s.exec.Run(10*time.Second, s.cfg.Tool, "status")
	if err != nil {
		return Status{}
	}

	lower := strings.ToLower(out)
	st := Status{
		Connected: strings.Contains(lower, "connected") && !strings.Contains(lower, "not connected"),
	}
	if st.Connected {
		for _, line := range strings.Split(out, "\n") {
			if idx := strings.Index(strings.ToLower(line), "connected to"); idx >= 0 {
				st.Location = strings.TrimSpace(line[idx+len("connected to"):])
				break
			}
		}
	}
	st.IP = s.ExternalIP()
	return st
}

// Rotate disconnects, picks the next identity per the active strategy,
// connects, and optionally verifies the address changed. A cooldown
// shorter than min_rotation_interval is slept off rather than refused.
// Returns false on connect failure, which counts toward the permanent
// disable latch.
func (s *Scheduler) Rotate() bool {
	if !s.lastRotation.IsZero() {
		if elapsed := s.now().Sub(s.lastRotation); elapsed < s.cfg.MinRotationInterval {
			wait := s.cfg.MinRotationInterval - elapsed
			fmt.Fprintf(s.w, "  rotation cooldown: waiting %s\n", wait.Round(time.Second))
			s.sleep(wait)
		}
	}

	var oldIP string
	if s.cfg.VerifyIPChange {
		oldIP = s.ExternalIP()
	}
	location := s.pickNext()

	s.disconnect()
	s.sleep(2 * time.Second)

	if !s.connect(location) {
		s.failures++
		fmt.Fprintf(s.w, "  rotation failed (%d/%d)\n", s.failures, s.cfg.MaxRotationFailures)
		if s.failures >= s.cfg.MaxRotationFailures {
			s.failedForGood = true
			fmt.Fprintln(s.w, "  rotation disabled: too many consecutive failures")
		}
		return false
	}

	if s.cfg.VerifyIPChange && oldIP != "" {
		newIP := s.ExternalIP()
		switch {
		case newIP != "" && newIP == oldIP:
			// Check services may cache; a connected tunnel still counts.
			fmt.Fprintf(s.w, "  address unchanged after rotation (%s)\n", oldIP)
		case newIP != "":
			fmt.Fprintf(s.w, "  address rotated: %s -> %s\n", oldIP, newIP)
		}
	}

	s.recent = append(s.recent, location)
	s.lastRotation = s.now()
	s.failures = 0
	return true
}

func (s *Scheduler) disconnect() {
	if _, err := s.exec.Run(s.cfg.ConnectionTimeout, s.cfg.Tool, "disconnect"); err != nil {
		fmt.Fprintf(s.w, "  warning: disconnect: %v\n", err)
	}
}

func (s *Scheduler) connect(location string) bool {
	if _, err := s.exec.Run(s.cfg.ConnectionTimeout, s.cfg.Tool, "connect", location); err != nil {
		fmt.Fprintf(s.w, "  warning: connect %s: %v\n", location, err)
		return false
	}
	fmt.Fprintf(s.w, "  connected to %s\n", location)
	s.sleep(s.cfg.PostConnectDelay)
	return true
}

// pickNext chooses the next identity for the configured strategy.
func (s *Scheduler) pickNext() string {
	pool := s.cfg.Locations
	switch s.cfg.Strategy {
	case "random":
		return pool[s.pick(len(pool))]
	case "sequential":
		location := pool[s.sequentialIndex%len(pool)]
		s.sequentialIndex++
		return location
	default: // smart: skip the identities used most recently
		recent := s.recent
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		var available []string
		for _, loc := range pool {
			used := false
			for _, r := range recent {
				if r == loc {
					used = true
					break
				}
			}
			if !used {
				available = append(available, loc)
			}
		}
		if len(available) == 0 {
			available = pool
		}
		return available[s.pick(len(available))]
	}
}

// ShouldRotateProactively reports whether the fixed cadence has come
// due after n completed papers.
func (s *Scheduler) ShouldRotateProactively(n int) bool {
	if s.cfg.RotateEveryN <= 0 {
		return false
	}
	return n > 0 && n%s.cfg.RotateEveryN == 0
}

// HasFailedPermanently latches true once consecutive connect failures
// reach the configured maximum and never resets for the rest of the run.
func (s *Scheduler) HasFailedPermanently() bool {
	return s.failedForGood
}
