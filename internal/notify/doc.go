// Package notify fans monitoring events out to observers after they have
// been committed to SQLite.
//
// Sinks are best effort. They never return errors to the caller and a slow
// or failing sink cannot change an access decision or reject a reading.
// Implementations: MQTTSink (broker topics behind a circuit breaker),
// InfluxSink (time series mirror) and Metrics (Prometheus counters).
package notify
