// Package scoring decides set and match outcomes from replayed sets.
package scoring

import (
	"fmt"
	"sort"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/types"
)

// Default match rules.
const (
	defaultSetPoints      = 25
	defaultTieBreakPoints = 15
	defaultMinLead        = 2
	defaultSetsToWin      = 3
)

// Rules holds the win conditions for sets and matches.
type Rules struct {
	setPoints      int
	tieBreakPoints int
	minLead        int
	setsToWin      int
	maxSets        int
	replay         []snapshot.Option
}

// NewRules creates best-of-five rules with configuration options.
func NewRules(opts ...Option) *Rules {
	r := &Rules{
		setPoints:      defaultSetPoints,
		tieBreakPoints: defaultTieBreakPoints,
		minLead:        defaultMinLead,
		setsToWin:      defaultSetsToWin,
		maxSets:        2*defaultSetsToWin - 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxSets returns the most sets a match can have.
func (r *Rules) MaxSets() int { return r.maxSets }

// SetsToWin returns how many sets decide the match.
func (r *Rules) SetsToWin() int { return r.setsToWin }

// Target returns the points needed to win set n.
func (r *Rules) Target(n int) int {
	if n == r.maxSets {
		return r.tieBreakPoints
	}
	return r.setPoints
}

// Replay computes the snapshot of rec with the configured replay options.
func (r *Rules) Replay(rec *model.SetRecord, opts ...snapshot.Option) (*snapshot.Snapshot, error) {
	all := append(append([]snapshot.Option(nil), r.replay...), opts...)
	return snapshot.Compute(rec, all...)
}

// SetWinner returns the side that has won set n, if any. A side wins once it
// reaches the target with a sufficient lead.
func (r *Rules) SetWinner(snap *snapshot.Snapshot, n int) (types.Side, bool) {
	target := r.Target(n)
	us, them := snap.Score.Us, snap.Score.Them
	switch {
	case us >= target && us-them >= r.minLead:
		return types.Us, true
	case them >= target && them-us >= r.minLead:
		return types.Them, true
	}
	return "", false
}

// SetResult summarizes one replayed set.
type SetResult struct {
	Number      int            `json:"number"`
	FirstServer types.Side     `json:"first_server"`
	Score       snapshot.Score `json:"score"`
	Winner      types.Side     `json:"winner,omitempty"`
}

// Status is the aggregate view of a match.
type Status struct {
	Wins snapshot.Score `json:"wins"`
	// NextSet is the number of the set to create next, 0 when none.
	NextSet int `json:"next_set,omitempty"`
	// Incomplete is the first set still in progress, 0 when none.
	Incomplete int        `json:"incomplete,omitempty"`
	Finished   bool       `json:"finished"`
	Winner     types.Side `json:"winner,omitempty"`
	// LastServing is the first server of the last completed set.
	LastServing types.Side  `json:"last_serving,omitempty"`
	Sets        []SetResult `json:"sets"`
}

// MatchStatus folds the sets of a match into its status. Scanning stops at
// the first set in progress, at the first missing set, or as soon as a side
// has won enough sets.
func (r *Rules) MatchStatus(records []*model.SetRecord) (Status, error) {
	byNumber, err := r.checkIntegrity(records)
	if err != nil {
		return Status{}, err
	}

	var st Status
	for n := model.FirstSetNumber; n <= r.maxSets; n++ {
		rec, ok := byNumber[n]
		if !ok {
			st.NextSet = n
			return st, nil
		}
		snap, err := r.Replay(rec)
		if err != nil {
			return Status{}, fmt.Errorf("set %d: %w", n, err)
		}
		res := SetResult{Number: n, FirstServer: rec.FirstServer, Score: snap.Score}
		winner, won := r.SetWinner(snap, n)
		if !won {
			st.Sets = append(st.Sets, res)
			st.Incomplete = n
			return st, nil
		}
		res.Winner = winner
		st.Sets = append(st.Sets, res)
		st.LastServing = rec.FirstServer
		if winner == types.Us {
			st.Wins.Us++
		} else {
			st.Wins.Them++
		}
		if st.Wins.Of(winner) >= r.setsToWin {
			st.Finished = true
			st.Winner = winner
			return st, nil
		}
	}
	return st, nil
}

func (r *Rules) checkIntegrity(records []*model.SetRecord) (map[int]*model.SetRecord, error) {
	if len(records) > r.maxSets {
		return nil, fmt.Errorf("%w: %d sets, at most %d", ErrTooManySets, len(records), r.maxSets)
	}
	byNumber := make(map[int]*model.SetRecord, len(records))
	numbers := make([]int, 0, len(records))
	for _, rec := range records {
		if _, dup := byNumber[rec.Number]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSet, rec.Number)
		}
		byNumber[rec.Number] = rec
		numbers = append(numbers, rec.Number)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		if n != model.FirstSetNumber+i {
			return nil, fmt.Errorf("%w: found %v", ErrNonContiguousSets, numbers)
		}
	}
	return byNumber, nil
}

// NextFirstServer returns the side that serves first in the next set. ok is
// false when a coin toss decides: in the first set, the deciding set, or when
// the match is over.
func (r *Rules) NextFirstServer(st Status) (types.Side, bool) {
	if st.Finished || st.NextSet == 0 || st.NextSet == model.FirstSetNumber || st.NextSet == r.maxSets {
		return "", false
	}
	if st.LastServing == "" {
		return "", false
	}
	return st.LastServing.Opponent(), true
}
