package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/adapters/mq/queue"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/pkg/logger"
)

// AuditFailure names a match whose stored log no longer replays.
type AuditFailure struct {
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

// AuditReport is the outcome of auditing every match of a team.
type AuditReport struct {
	TeamID   uuid.UUID      `json:"team_id"`
	Matches  int            `json:"matches"`
	Passed   int            `json:"passed"`
	Failures []AuditFailure `json:"failures,omitempty"`
	Took     time.Duration  `json:"took"`
}

// OK reports whether every match passed.
func (r AuditReport) OK() bool { return len(r.Failures) == 0 }

// Audit replays every stored match of a team concurrently and reports those
// that fail. Each match is replayed independently.
func (s *Service) Audit(ctx context.Context, teamID uuid.UUID) (AuditReport, error) {
	start := time.Now()
	report := AuditReport{TeamID: teamID}

	matches, err := s.store.ListMatches(ctx, teamID)
	if err != nil {
		return report, err
	}
	report.Matches = len(matches)

	var mu sync.Mutex
	collect := worker.ReporterFunc(func(_ context.Context, r worker.Result) {
		mu.Lock()
		defer mu.Unlock()
		if r.Err == nil {
			report.Passed++
			return
		}
		report.Failures = append(report.Failures, AuditFailure{MatchID: r.Job.MatchID, Reason: r.Err.Error(), Err: r.Err})
	})

	// partial copies the report while workers may still be reporting.
	partial := func() AuditReport {
		mu.Lock()
		defer mu.Unlock()
		out := report
		out.Failures = slices.Clone(report.Failures)
		return out
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.auditQueueSize))
	pool := worker.NewPool(s.auditWorkers, q, s, collect, worker.WithLogger(s.logger))
	pool.Start(ctx)

	for _, m := range matches {
		if err := q.EnqueueWait(ctx, queue.Job{TeamID: teamID, MatchID: m.ID}); err != nil {
			_ = q.Close()
			return partial(), fmt.Errorf("queue audit of match %s: %w", m.ID, err)
		}
	}
	_ = q.Close()
	if err := pool.Wait(ctx); err != nil {
		return partial(), err
	}

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].MatchID < report.Failures[j].MatchID
	})
	report.Took = time.Since(start)
	s.logger.Info(ctx, "audit finished",
		logger.String("team", teamID.String()),
		logger.Int("matches", report.Matches),
		logger.Int("failures", len(report.Failures)),
		logger.Duration("took", report.Took),
	)
	return report, nil
}

// AuditMatch replays every set of one match. It checks set numbering, that
// every log replays, that no event follows the point that decided its set,
// and that no set follows the one that decided the match.
func (s *Service) AuditMatch(ctx context.Context, job queue.Job) error {
	recs, err := s.store.LoadSets(ctx, job.MatchID)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.auditSet(rec); err != nil {
			return fmt.Errorf("set %d: %w", rec.Number, err)
		}
	}

	st, err := s.rules.MatchStatus(recs)
	if err != nil {
		return err
	}
	if len(recs) > len(st.Sets) {
		extra := recs[len(st.Sets)].Number
		if st.Finished {
			return fmt.Errorf("%w: set %d", ErrSetAfterMatchEnd, extra)
		}
		return fmt.Errorf("%w: set %d opened before set %d ended", ErrSetInProgress, extra, st.Incomplete)
	}
	return nil
}

func (s *Service) auditSet(rec *model.SetRecord) error {
	snap, err := s.replay(rec, snapshot.UpTo(0))
	if err != nil {
		return err
	}
	for i, e := range rec.Events() {
		if winner, won := s.rules.SetWinner(snap, rec.Number); won {
			return fmt.Errorf("%w: event %d (%s) after %s won", ErrEventAfterSetEnd, i, e.Kind, winner)
		}
		if snap, err = snap.Apply(e); err != nil {
			return err
		}
	}
	return nil
}
