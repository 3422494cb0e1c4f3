package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/model"
)

const (
	teamFile  = "team.json"
	matchFile = "match.json"
)

// FileStore keeps one directory per team and one per match:
//
//	<root>/<team>/team.json
//	<root>/<team>/<match>/match.json
//	<root>/<team>/<match>/set_<n>.json   descriptor
//	<root>/<team>/<match>/set_<n>.jsonl  one event per line
//
// Appends go to the end of the log file; RemoveLast rewrites the log into a
// temporary file and renames it over the original.
type FileStore struct {
	mu       sync.Mutex
	root     string
	sync     bool
	fileMode os.FileMode
}

// NewFileStore opens (and creates if needed) a store rooted at dir.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data directory is required")
	}
	s := &FileStore{root: filepath.Clean(dir), sync: true, fileMode: 0o644}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return s, nil
}

func validName(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func setBase(number int) string { return fmt.Sprintf("set_%d", number) }

func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return s.replace(path, data)
}

// replace atomically swaps the content of path.
func (s *FileStore) replace(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if s.sync {
		if err := tmp.Sync(); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), s.fileMode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	return nil
}

// matchDir finds the directory of a match below any team.
func (s *FileStore) matchDir(matchID string) (string, error) {
	if !validName(matchID) {
		return "", fmt.Errorf("match %q: %w", matchID, ErrNotFound)
	}
	found, err := filepath.Glob(filepath.Join(s.root, "*", matchID, matchFile))
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	return filepath.Dir(found[0]), nil
}

// SaveTeam implements Store.SaveTeam.
func (s *FileStore) SaveTeam(ctx context.Context, team *model.Team) (err error) {
	defer func(start time.Time) { observe(BackendFile, "save_team", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := filepath.Join(s.root, team.ID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(dir, teamFile), team)
}

// LoadTeam implements Store.LoadTeam.
func (s *FileStore) LoadTeam(ctx context.Context, teamID uuid.UUID) (_ *model.Team, err error) {
	defer func(start time.Time) { observe(BackendFile, "load_team", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var t model.Team
	if err := readJSON(filepath.Join(s.root, teamID.String(), teamFile), &t); err != nil {
		return nil, fmt.Errorf("team %s: %w", teamID, err)
	}
	return &t, nil
}

// SaveMatch implements Store.SaveMatch.
func (s *FileStore) SaveMatch(ctx context.Context, m model.Match) (err error) {
	defer func(start time.Time) { observe(BackendFile, "save_match", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validName(m.ID) {
		return fmt.Errorf("invalid match id %q", m.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	teamDir := filepath.Join(s.root, m.TeamID.String())
	if _, err := os.Stat(filepath.Join(teamDir, teamFile)); err != nil {
		return fmt.Errorf("team %s: %w", m.TeamID, ErrNotFound)
	}
	dir := filepath.Join(teamDir, m.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(dir, matchFile), m)
}

// LoadMatch implements Store.LoadMatch.
func (s *FileStore) LoadMatch(ctx context.Context, matchID string) (_ model.Match, err error) {
	defer func(start time.Time) { observe(BackendFile, "load_match", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return model.Match{}, err
	}
	dir, err := s.matchDir(matchID)
	if err != nil {
		return model.Match{}, err
	}
	var m model.Match
	if err := readJSON(filepath.Join(dir, matchFile), &m); err != nil {
		return model.Match{}, fmt.Errorf("match %s: %w", matchID, err)
	}
	m.ID = matchID
	return m, nil
}

// ListMatches implements Store.ListMatches.
func (s *FileStore) ListMatches(ctx context.Context, teamID uuid.UUID) (_ []model.Match, err error) {
	defer func(start time.Time) { observe(BackendFile, "list_matches", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, teamID.String()))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var out []model.Match
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var m model.Match
		err := readJSON(filepath.Join(s.root, teamID.String(), e.Name(), matchFile), &m)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.ID = e.Name()
		out = append(out, m)
	}
	sortMatches(out)
	return out, nil
}

// CreateSet implements Store.CreateSet.
func (s *FileStore) CreateSet(ctx context.Context, matchID string, d model.SetDescriptor) (err error) {
	defer func(start time.Time) { observe(BackendFile, "create_set", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, err := s.matchDir(matchID)
	if err != nil {
		return err
	}
	descPath := filepath.Join(dir, setBase(d.Number)+".json")
	if _, err := os.Stat(descPath); err == nil {
		return fmt.Errorf("match %s set %d: %w", matchID, d.Number, ErrSetExists)
	}
	if err := s.replace(filepath.Join(dir, setBase(d.Number)+".jsonl"), nil); err != nil {
		return err
	}
	return s.writeJSON(descPath, d)
}

func (s *FileStore) loadSet(dir string, number int) (*model.SetRecord, error) {
	var d model.SetDescriptor
	if err := readJSON(filepath.Join(dir, setBase(number)+".json"), &d); err != nil {
		return nil, err
	}
	if d.Number != number {
		return nil, fmt.Errorf("%w: %s.json holds set %d", ErrCorrupt, setBase(number), d.Number)
	}
	events, err := readEvents(filepath.Join(dir, setBase(number)+".jsonl"))
	if err != nil {
		return nil, err
	}
	rec, err := model.RestoreSetRecord(d, events)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return rec, nil
}

func readEvents(path string) ([]model.RallyEvent, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []model.RallyEvent
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e model.RallyEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrCorrupt, filepath.Base(path), line, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// LoadSet implements Store.LoadSet.
func (s *FileStore) LoadSet(ctx context.Context, matchID string, number int) (_ *model.SetRecord, err error) {
	defer func(start time.Time) { observe(BackendFile, "load_set", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.matchDir(matchID)
	if err != nil {
		return nil, err
	}
	rec, err := s.loadSet(dir, number)
	if err != nil {
		return nil, fmt.Errorf("match %s set %d: %w", matchID, number, err)
	}
	return rec, nil
}

// LoadSets implements Store.LoadSets. It fails with ErrCorrupt when the
// directory holds more sets than a match can have.
func (s *FileStore) LoadSets(ctx context.Context, matchID string) (_ []*model.SetRecord, err error) {
	defer func(start time.Time) { observe(BackendFile, "load_sets", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.matchDir(matchID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var numbers []int
	for _, e := range entries {
		var n int
		if _, err := fmt.Sscanf(e.Name(), "set_%d.json", &n); err != nil || e.Name() != setBase(n)+".json" {
			continue
		}
		numbers = append(numbers, n)
	}
	if len(numbers) > model.LastSetNumber {
		return nil, fmt.Errorf("%w: match %s has %d sets", ErrCorrupt, matchID, len(numbers))
	}
	sort.Ints(numbers)
	out := make([]*model.SetRecord, 0, len(numbers))
	for _, n := range numbers {
		rec, err := s.loadSet(dir, n)
		if err != nil {
			return nil, fmt.Errorf("match %s set %d: %w", matchID, n, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Append implements Store.Append.
func (s *FileStore) Append(ctx context.Context, matchID string, number int, e model.RallyEvent) (err error) {
	defer func(start time.Time) { observe(BackendFile, "append", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, err := s.matchDir(matchID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, setBase(number)+".json")); err != nil {
		return fmt.Errorf("match %s set %d: %w", matchID, number, ErrNotFound)
	}
	f, err := os.OpenFile(filepath.Join(dir, setBase(number)+".jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, s.fileMode)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if s.sync {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return err
		}
	}
	return f.Close()
}

// RemoveLast implements Store.RemoveLast.
func (s *FileStore) RemoveLast(ctx context.Context, matchID string, number int) (_ *model.RallyEvent, err error) {
	defer func(start time.Time) { observe(BackendFile, "remove_last", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, err := s.matchDir(matchID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, setBase(number)+".json")); err != nil {
		return nil, fmt.Errorf("match %s set %d: %w", matchID, number, ErrNotFound)
	}
	path := filepath.Join(dir, setBase(number)+".jsonl")
	events, err := readEvents(path)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	last := events[len(events)-1]
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events[:len(events)-1] {
		if err := enc.Encode(e); err != nil {
			return nil, err
		}
	}
	if err := s.replace(path, buf.Bytes()); err != nil {
		return nil, err
	}
	return &last, nil
}

// Close implements Store.Close.
func (s *FileStore) Close() error { return nil }
