// Package location provides the rooms monitored by the core.
//
// Rooms are maintained by the school back office. The core reads them to
// check that telemetry arrives from an active room and that classroom
// (SALA) devices are bound to a real one, and offers a small admin
// create/update/list surface.
package location
