package backfill

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/shardcore/internal/interrupt"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// Run drives one backfillee_begin → backfiller → backfillee_end/cancel
// exchange between backfillee and backfiller. On success it returns the
// timestamp the backfillee converged to. On interruption or backfiller
// failure it cancels the backfillee (leaving it ¬coherent ∧
// ¬backfilling, per spec.md §4.5) and returns the underlying error.
func Run(backfillee, backfiller store.Store, interruptor *interrupt.Signal) (protocol.StateTimestamp, error) {
	req, err := backfillee.BackfilleeBegin()
	if err != nil {
		return 0, fmt.Errorf("backfill: begin: %w", err)
	}

	end, err := backfiller.Backfiller(req, backfillee.BackfilleeChunk, interruptor)
	if err != nil {
		if cancelErr := backfillee.BackfilleeCancel(); cancelErr != nil {
			return 0, fmt.Errorf("backfill: source failed (%w) and cancel also failed: %v", err, cancelErr)
		}
		return 0, fmt.Errorf("backfill: %w", err)
	}

	if err := backfillee.BackfilleeEnd(end); err != nil {
		return 0, fmt.Errorf("backfill: end: %w", err)
	}
	return end, nil
}

// Session wraps Run with bounded retry, for the case where the first
// backfiller candidate is transiently unreachable or an attempt fails. A
// pulsed interruptor ends the session instead of being retried. Each attempt is a fresh begin/transfer/end cycle — there is
// no partial resume within a single chunk stream, but a canceled
// backfillee always restarts as stale, never as torn, so retrying is
// always safe.
type Session struct {
	ID uuid.UUID

	// MaxAttempts bounds the total number of attempts, counting the first.
	// Zero or less means try once with no retry.
	MaxAttempts int
	// Backoff is the delay between attempts.
	Backoff time.Duration
}

// NewSession allocates a Session with the teacher's own register()
// retry budget (10 attempts, 400ms apart) as the default.
func NewSession() *Session {
	return &Session{
		ID:          uuid.Must(uuid.NewV7()),
		MaxAttempts: 10,
		Backoff:     400 * time.Millisecond,
	}
}

// Resume retries Run against pickBackfiller() until it succeeds, the
// interruptor is pulsed, or MaxAttempts is exhausted. pickBackfiller lets
// the caller choose a different source replica on each attempt (e.g. the
// routing layer may have marked the first one unhealthy).
func (s *Session) Resume(backfillee store.Store, pickBackfiller func(attempt int) (store.Store, error), interruptor *interrupt.Signal) (protocol.StateTimestamp, error) {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if interruptor != nil && interruptor.Pulsed() {
			return 0, xerrors.ErrInterrupted
		}

		backfiller, err := pickBackfiller(attempt)
		if err != nil {
			lastErr = fmt.Errorf("backfill session %s: %w: %v", s.ID, xerrors.ErrTransient, err)
			time.Sleep(s.Backoff)
			continue
		}

		end, err := Run(backfillee, backfiller, interruptor)
		if err == nil {
			return end, nil
		}
		lastErr = err
		time.Sleep(s.Backoff)
	}

	return 0, fmt.Errorf("backfill session %s: exhausted %d attempts: %w", s.ID, attempts, lastErr)
}
