package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edugate/monitoring-core/internal/infrastructure/config"
	"github.com/edugate/monitoring-core/internal/infrastructure/influxdb"
)

// fakeServer answers /ping and records line protocol posted to /api/v2/write.
type fakeServer struct {
	*httptest.Server
	mu    sync.Mutex
	lines []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/write":
			body, _ := io.ReadAll(r.Body)
			fs.mu.Lock()
			fs.lines = append(fs.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
			fs.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

// waitForLine polls until a written line contains every fragment.
func (fs *fakeServer) waitForLine(t *testing.T, fragments ...string) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		fs.mu.Lock()
		for _, line := range fs.lines {
			if containsAll(line, fragments) {
				fs.mu.Unlock()
				return line
			}
		}
		fs.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no line containing %v was written", fragments)
	return ""
}

func containsAll(s string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "school",
		Bucket:        "monitoring",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	if _, err := influxdb.Connect(testConfig("http://127.0.0.1:59999")); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	fs := newFakeServer(t)
	cfg := testConfig(fs.URL)
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteReading(t *testing.T) {
	fs := newFakeServer(t)
	client, err := influxdb.Connect(testConfig(fs.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WriteReading("sensor-1", "sala-1", 22.5, 48, "OK", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	client.Flush()

	fs.waitForLine(t, "telemetry,", "device_id=sensor-1", "room_id=sala-1", "status=OK", "temperature=22.5", "humidity=48")
}

func TestWriteAccessDecision(t *testing.T) {
	fs := newFakeServer(t)
	client, err := influxdb.Connect(testConfig(fs.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WriteAccessDecision("gate-1", "DENY", "inactive_student", "manual", time.Now())
	client.Flush()

	fs.waitForLine(t, "access_decision,", "device_id=gate-1", "result=DENY", "reason=inactive_student", "source=manual", "count=1i")
}

func TestClose(t *testing.T) {
	fs := newFakeServer(t)
	client, err := influxdb.Connect(testConfig(fs.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close() = %v", err)
	}

	// Writes after Close are dropped without panicking.
	client.WriteReading("sensor-1", "sala-1", 20, 50, "OK", time.Now())
	client.Flush()
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}
