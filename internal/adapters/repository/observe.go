package repository

import (
	"sort"
	"time"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/metrics"
)

// Backend names used as metric labels.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

func observe(backend, op string, start time.Time, err error) {
	metrics.RecordStoreOperation(backend, op, float64(time.Since(start).Microseconds())/1000, err)
}

func cloneDescriptor(d model.SetDescriptor) model.SetDescriptor {
	if d.Us != nil {
		us := *d.Us
		d.Us = &us
	}
	if d.Them != nil {
		them := *d.Them
		d.Them = &them
	}
	return d
}

func cloneTeam(t *model.Team) *model.Team {
	out := *t
	out.Players = append([]model.Player(nil), t.Players...)
	return &out
}

func sortMatches(ms []model.Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Date.Equal(ms[j].Date) {
			return ms[i].Date.After(ms[j].Date)
		}
		return ms[i].ID < ms[j].ID
	})
}
