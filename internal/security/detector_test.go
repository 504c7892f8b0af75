package security

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/vigil-core/internal/config"
	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/internal/store"
	"github.com/platformbuilds/vigil-core/pkg/cache"
	"github.com/platformbuilds/vigil-core/pkg/clock"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

type captureDispatcher struct {
	mu     sync.Mutex
	events []models.Event
}

func (d *captureDispatcher) Dispatch(ev models.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *captureDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		BruteForceThreshold:     10,
		BruteForceWindowSeconds: 300,
		ReputationThreshold:     5,
		ReputationTTLHours:      24,
	}
}

func newTestDetector(t *testing.T) (*Detector, *store.LogStore, *captureDispatcher, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ls := store.NewLogStore(1000, 24*time.Hour, clk)
	disp := &captureDispatcher{}
	d := NewDetector(testSecurityConfig(), ls, cache.NewMemory(clk), disp, clk, logger.NewNop())
	return d, ls, disp, clk
}

func recordAuthFailures(ls *store.LogStore, ip string, n int) {
	for i := 0; i < n; i++ {
		ls.Record(models.LogEntry{
			Level:     models.LevelWarn,
			Component: "auth",
			Message:   "authentication failed",
			Data:      map[string]interface{}{"ip": ip},
		})
	}
}

func TestDetectorBruteForce(t *testing.T) {
	d, ls, disp, _ := newTestDetector(t)
	ctx := context.Background()

	sc := &models.SecurityContext{
		Source:     models.EventSource{IP: "203.0.113.7", Endpoint: "/login"},
		AuthFailed: true,
	}

	// 8 recorded failures + this one = 9, under the threshold of 10
	recordAuthFailures(ls, "203.0.113.7", 8)
	ev, err := d.Check(ctx, sc)
	require.NoError(t, err)
	assert.Nil(t, ev)

	// one more pushes the count to exactly the threshold
	recordAuthFailures(ls, "203.0.113.7", 1)
	ev, err = d.Check(ctx, sc)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, models.EventBruteForce, ev.Type)
	assert.Equal(t, models.SeverityHigh, ev.Severity)
	assert.Equal(t, 10, ev.Details["failure_count"])
	assert.Equal(t, 1, disp.count())
}

func TestDetectorBruteForceIgnoresOtherIPs(t *testing.T) {
	d, ls, _, _ := newTestDetector(t)

	recordAuthFailures(ls, "198.51.100.1", 50)
	ev, err := d.Check(context.Background(), &models.SecurityContext{
		Source:     models.EventSource{IP: "203.0.113.7"},
		AuthFailed: true,
	})
	require.NoError(t, err)
	assert.Nil(t, ev, "failures from a different IP must not count")
}

func TestDetectorBruteForceWindowExpiry(t *testing.T) {
	d, ls, _, clk := newTestDetector(t)

	recordAuthFailures(ls, "203.0.113.7", 20)
	clk.Advance(10 * time.Minute) // past the 5 minute window

	ev, err := d.Check(context.Background(), &models.SecurityContext{
		Source:     models.EventSource{IP: "203.0.113.7"},
		AuthFailed: true,
	})
	require.NoError(t, err)
	assert.Nil(t, ev, "stale failures outside the window must not count")
}

func TestDetectorInjection(t *testing.T) {
	d, _, _, _ := newTestDetector(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		payload string
		kind    string
	}{
		{"sql union", "id=1 UNION SELECT password FROM users", "sql"},
		{"sql comment", "name=x'; --", "sql"},
		{"sql tautology", "user=' OR '1'='1", "sql"},
		{"script tag", "<script>alert(1)</script>", "script"},
		{"event handler", `<img src=x onerror=alert(1)>`, "script"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := d.Check(ctx, &models.SecurityContext{
				Source:  models.EventSource{IP: "203.0.113.9", Endpoint: "/search"},
				Payload: tc.payload,
			})
			require.NoError(t, err)
			require.NotNil(t, ev)
			assert.Equal(t, models.EventInjectionAttempt, ev.Type)
			assert.Equal(t, tc.kind, ev.Details["pattern_kind"])
		})
	}

	ev, err := d.Check(ctx, &models.SecurityContext{
		Source:  models.EventSource{IP: "203.0.113.9"},
		Payload: "q=harmless search terms",
	})
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDetectorMaliciousUpload(t *testing.T) {
	d, _, _, _ := newTestDetector(t)
	ctx := context.Background()

	ev, err := d.Check(ctx, &models.SecurityContext{
		Source:     models.EventSource{IP: "203.0.113.10"},
		UploadName: "invoice.exe",
	})
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, models.EventMaliciousUpload, ev.Type)
	assert.Equal(t, ".exe", ev.Details["extension"])

	// benign extension but executable content in the sample
	ev, err = d.Check(ctx, &models.SecurityContext{
		Source:       models.EventSource{IP: "203.0.113.10"},
		UploadName:   "photo.jpg",
		UploadSample: `<?php eval($_GET["c"]); ?>`,
	})
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, models.EventMaliciousUpload, ev.Type)

	ev, err = d.Check(ctx, &models.SecurityContext{
		Source:       models.EventSource{IP: "203.0.113.10"},
		UploadName:   "report.pdf",
		UploadSample: "%PDF-1.7 plain document",
	})
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDetectorPrivilegeEscalation(t *testing.T) {
	d, _, _, _ := newTestDetector(t)
	ctx := context.Background()

	// role jump from a non-privileged role
	ev, err := d.Check(ctx, &models.SecurityContext{
		Source:    models.EventSource{IP: "203.0.113.11", UserID: "u42"},
		Role:      "admin",
		PriorRole: "user",
	})
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, models.EventPrivilegeEscalation, ev.Type)
	assert.Equal(t, models.SeverityCritical, ev.Severity)

	// non-privileged role reaching into admin endpoints
	ev, err = d.Check(ctx, &models.SecurityContext{
		Source: models.EventSource{IP: "203.0.113.11", Endpoint: "/admin/users"},
		Role:   "user",
	})
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, models.EventPrivilegeEscalation, ev.Type)

	// an admin on an admin endpoint is normal
	ev, err = d.Check(ctx, &models.SecurityContext{
		Source: models.EventSource{IP: "203.0.113.11", Endpoint: "/admin/users"},
		Role:   "admin",
	})
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDetectorFirstMatchWins(t *testing.T) {
	d, _, disp, _ := newTestDetector(t)

	// payload and upload both malicious: injection is checked first and
	// produces the only event
	ev, err := d.Check(context.Background(), &models.SecurityContext{
		Source:     models.EventSource{IP: "203.0.113.12"},
		Payload:    "x'; DROP TABLE users; --",
		UploadName: "shell.php",
	})
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, models.EventInjectionAttempt, ev.Type)
	assert.Equal(t, 1, disp.count())
}

func TestDetectorMissingFieldsNoMatch(t *testing.T) {
	d, _, disp, _ := newTestDetector(t)
	ctx := context.Background()

	ev, err := d.Check(ctx, &models.SecurityContext{})
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = d.Check(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, ev)

	// auth failure without a source IP cannot be attributed
	ev, err = d.Check(ctx, &models.SecurityContext{AuthFailed: true})
	require.NoError(t, err)
	assert.Nil(t, ev)

	assert.Zero(t, disp.count())
}

func TestDetectorReputationAutoBlock(t *testing.T) {
	d, _, _, _ := newTestDetector(t)
	ctx := context.Background()
	ip := "203.0.113.13"

	inject := &models.SecurityContext{
		Source:  models.EventSource{IP: ip, Endpoint: "/search"},
		Payload: "x' OR '1'='1",
	}

	for i := 0; i < 4; i++ {
		ev, err := d.Check(ctx, inject)
		require.NoError(t, err)
		require.NotNil(t, ev)
	}
	blocked, err := d.Blocklist().IsBlocked(ctx, ip)
	require.NoError(t, err)
	assert.False(t, blocked, "4 events are below the reputation threshold")

	_, err = d.Check(ctx, inject)
	require.NoError(t, err)
	blocked, err = d.Blocklist().IsBlocked(ctx, ip)
	require.NoError(t, err)
	assert.True(t, blocked, "5th event must trip the automatic block")
}

func TestDetectorSummary(t *testing.T) {
	d, _, _, _ := newTestDetector(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := d.Check(ctx, &models.SecurityContext{
			Source:  models.EventSource{IP: fmt.Sprintf("203.0.113.%d", 20+i)},
			Payload: "<script>steal()</script>",
		})
		require.NoError(t, err)
	}
	_, err := d.Check(ctx, &models.SecurityContext{
		Source:     models.EventSource{IP: "203.0.113.20"},
		UploadName: "loader.bat",
	})
	require.NoError(t, err)

	s := d.Summary(ctx, time.Hour)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.ByType[models.EventInjectionAttempt])
	assert.Equal(t, 1, s.ByType[models.EventMaliciousUpload])
	assert.Equal(t, 3, s.UniqueIPs)
}
