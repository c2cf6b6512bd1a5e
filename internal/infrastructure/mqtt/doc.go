// Package mqtt publishes monitoring events to an MQTT broker.
//
// The core only publishes. Dashboards, door controllers and alerting
// services subscribe to the topics built by Topics:
//
//	monitoring/access/{deviceId}      one message per access decision
//	monitoring/telemetry/{roomId}     one message per stored reading
//	monitoring/system/status          retained online/offline status (LWT)
//
// The broker is optional. When it is unreachable the core keeps deciding
// and storing; publishing failures are logged by the caller.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(mqtt.Topics{}.AccessDecision("gate-1"), payload, 1, false)
package mqtt
