// Package telemetry ingests classroom temperature and humidity readings and
// classifies them against the comfort thresholds.
//
// Readings are stored without a status. Evaluate runs on read with the
// settings in force at query time, so tightening a threshold reclassifies
// history instead of leaving stale labels behind.
package telemetry
