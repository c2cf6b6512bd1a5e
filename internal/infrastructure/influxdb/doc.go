// Package influxdb mirrors monitoring events into InfluxDB for dashboards.
//
// Two measurements are written:
//
//	telemetry        tags device_id, room_id, status; fields temperature, humidity
//	access_decision  tags device_id, result, reason, source; field count=1
//
// SQLite stays the system of record. Writes are non-blocking and batched
// (batch_size, flush_interval); failures arrive on the SetOnError callback
// and never reach the caller.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteReading("sensor-1", "sala-1", 22.5, 48, "OK", measuredAt)
package influxdb
