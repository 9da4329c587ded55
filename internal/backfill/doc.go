// Package backfill orchestrates a streaming transfer of a region's state
// from one Store (the backfiller) to another (the backfillee), promoting
// the worked example left as a comment in original_source's protocol API
// notes into a real, tested driver:
//
//	req := backfillee.BackfilleeBegin()
//	end, err := backfiller.Backfiller(req, backfillee.BackfilleeChunk, interruptor)
//	if err != nil { backfillee.BackfilleeCancel(); return err }
//	backfillee.BackfilleeEnd(end)
//
// Run adds resume and retry semantics on top of that core loop: a
// canceled or failed attempt leaves the backfillee stale (per
// store.MemStore's state machine), and Session.Resume re-drives the same
// four-step exchange, exactly like the teacher's node registration retry
// loop in cmd/node/main.go (bounded attempts, fixed backoff between
// tries) generalized from "register with the coordinator" to "catch up a
// stale replica."
package backfill
