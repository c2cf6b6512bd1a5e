// Package access turns RFID badge reads into ALLOW/DENY decisions.
//
// Every decision is appended to the access_events table, which doubles as
// the audit trail and as the state behind the simulation rate limiter:
//
//	engine := access.NewEngine(devices, students, events, logger)
//	result, err := engine.Process(ctx, snapshot, access.Request{
//	    DeviceID:  "gate-1",
//	    StudentID: "stu-42",
//	    Source:    access.SourceManual,
//	})
//
// A DENY is a normal result, not an error. Errors are returned only when the
// device or student does not exist (apperr.NotFoundError) or storage fails.
//
// RateLimiter applies to auto-sourced events only. It keeps no in-process
// state; each Check reads the newest created_at for the device, so several
// core processes sharing one database agree on the outcome.
package access
