package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/edugate/monitoring-core/internal/access"
	"github.com/edugate/monitoring-core/internal/telemetry"
)

type published struct {
	topic   string
	payload []byte
	qos     byte
}

type fakePublisher struct {
	mu    sync.Mutex
	msgs  []published
	err   error
	calls int
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, payload: payload, qos: qos})
	return nil
}

var (
	testEvent = access.Event{
		ID: "e1", DeviceID: "gate-1", StudentID: "stu-1",
		Result: access.DecisionDeny, Reason: access.ReasonInactiveStudent, Source: access.SourceManual,
		OccurredAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2026, 3, 2, 8, 0, 1, 0, time.UTC),
	}
	testReading = telemetry.Reading{
		ID: "r1", DeviceID: "sensor-1", RoomID: "sala-1", Temperature: 29.5, Humidity: 55,
		MeasuredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
)

func TestMQTTSink_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub, 1, nil)
	ctx := context.Background()

	sink.AccessDecided(ctx, testEvent)
	sink.ReadingStored(ctx, testReading, telemetry.StatusWarning)
	sink.SimulationSkipped(ctx, "gate-1", 3800*time.Millisecond)
	sink.ReadingRejected(ctx, "sensor-1", telemetry.ReasonRoomInactive)

	if len(pub.msgs) != 3 {
		t.Fatalf("published %d messages, want 3", len(pub.msgs))
	}

	if pub.msgs[0].topic != "monitoring/access/gate-1" || pub.msgs[0].qos != 1 {
		t.Errorf("access message = %s qos %d", pub.msgs[0].topic, pub.msgs[0].qos)
	}
	var a accessPayload
	if err := json.Unmarshal(pub.msgs[0].payload, &a); err != nil {
		t.Fatalf("access payload: %v", err)
	}
	if a.Result != "DENY" || a.Reason != "inactive_student" || a.StudentID != "stu-1" {
		t.Errorf("access payload = %+v", a)
	}

	if pub.msgs[1].topic != "monitoring/telemetry/sala-1" {
		t.Errorf("telemetry topic = %s", pub.msgs[1].topic)
	}
	var r readingPayload
	if err := json.Unmarshal(pub.msgs[1].payload, &r); err != nil {
		t.Fatalf("reading payload: %v", err)
	}
	if r.Status != "WARNING" || r.Temperature != 29.5 {
		t.Errorf("reading payload = %+v", r)
	}

	var s skippedPayload
	if err := json.Unmarshal(pub.msgs[2].payload, &s); err != nil {
		t.Fatalf("skipped payload: %v", err)
	}
	if pub.msgs[2].topic != "monitoring/access/gate-1/skipped" || s.RetryAfterMs != 3800 {
		t.Errorf("skipped message = %s %+v", pub.msgs[2].topic, s)
	}
}

func TestMQTTSink_BreakerOpensAfterFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("mqtt: client not connected")}
	sink := NewMQTTSink(pub, 1, nil)

	for i := 0; i < breakerFailures+3; i++ {
		sink.AccessDecided(context.Background(), testEvent)
	}
	if pub.calls != breakerFailures {
		t.Errorf("publisher called %d times, want %d before the breaker opens", pub.calls, breakerFailures)
	}
}

type recordingWriter struct {
	readings  []string
	decisions []string
}

func (w *recordingWriter) WriteReading(deviceID, roomID string, _, _ float64, status string, _ time.Time) {
	w.readings = append(w.readings, deviceID+"/"+roomID+"/"+status)
}

func (w *recordingWriter) WriteAccessDecision(deviceID, result, reason, source string, _ time.Time) {
	w.decisions = append(w.decisions, strings.Join([]string{deviceID, result, reason, source}, "/"))
}

func TestInfluxSink(t *testing.T) {
	w := &recordingWriter{}
	sink := NewInfluxSink(w)
	ctx := context.Background()

	sink.AccessDecided(ctx, testEvent)
	sink.ReadingStored(ctx, testReading, telemetry.StatusOK)
	sink.ReadingRejected(ctx, "sensor-1", "room not found")
	sink.SimulationSkipped(ctx, "gate-1", time.Second)

	if len(w.decisions) != 1 || w.decisions[0] != "gate-1/DENY/inactive_student/manual" {
		t.Errorf("decisions = %v", w.decisions)
	}
	if len(w.readings) != 1 || w.readings[0] != "sensor-1/sala-1/OK" {
		t.Errorf("readings = %v", w.readings)
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()

	m.AccessDecided(ctx, testEvent)
	m.AccessDecided(ctx, testEvent)
	m.ReadingStored(ctx, testReading, telemetry.StatusCritical)
	m.ReadingRejected(ctx, "sensor-1", telemetry.ReasonRoomNotFound)
	m.SimulationSkipped(ctx, "gate-1", time.Second)
	m.TokenCollision()

	if got := testutil.ToFloat64(m.accessDecisions.WithLabelValues("DENY", "inactive_student", "manual")); got != 2 {
		t.Errorf("access_decisions_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.readings.WithLabelValues("CRITICAL")); got != 1 {
		t.Errorf("telemetry_readings_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.readingRejections.WithLabelValues("room not found")); got != 1 {
		t.Errorf("telemetry_rejections_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.simulationsSkipped); got != 1 {
		t.Errorf("simulations_skipped_total = %v", got)
	}
	if got := testutil.ToFloat64(m.tokenCollisions); got != 1 {
		t.Errorf("device_token_collisions_total = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "monitoring_access_decisions_total") {
		t.Error("/metrics output missing access decision counter")
	}
}

type countingSink struct {
	Nop
	decided int
}

func (c *countingSink) AccessDecided(context.Context, access.Event) { c.decided++ }

func TestMulti(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	Multi{a, Nop{}, b}.AccessDecided(context.Background(), testEvent)
	if a.decided != 1 || b.decided != 1 {
		t.Errorf("decided = %d, %d", a.decided, b.decided)
	}
}
