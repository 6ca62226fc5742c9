package query

import (
	"context"
	"sort"
	"time"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

// In-memory fakes for the query handler tests.

type fakeActivityStore struct {
	records map[string]*engagement.ActivityRecord
}

func newFakeActivityStore(records ...*engagement.ActivityRecord) *fakeActivityStore {
	s := &fakeActivityStore{records: make(map[string]*engagement.ActivityRecord)}
	for _, r := range records {
		cp := *r
		s.records[r.ID] = &cp
	}
	return s
}

func (s *fakeActivityStore) Save(ctx context.Context, r *engagement.ActivityRecord) error {
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

func (s *fakeActivityStore) SaveBatch(ctx context.Context, rs []*engagement.ActivityRecord) error {
	for _, r := range rs {
		cp := *r
		s.records[r.ID] = &cp
	}
	return nil
}

func (s *fakeActivityStore) Get(ctx context.Context, id string) (*engagement.ActivityRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, engagement.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeActivityStore) GetByUser(ctx context.Context, userID string) ([]*engagement.ActivityRecord, error) {
	var out []*engagement.ActivityRecord
	for _, r := range s.records {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *fakeActivityStore) GetByUserSince(ctx context.Context, userID string, since time.Time) ([]*engagement.ActivityRecord, error) {
	var out []*engagement.ActivityRecord
	for _, r := range s.records {
		if r.UserID == userID && r.HasDate() && !r.Date.Before(since) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *fakeActivityStore) GetAll(ctx context.Context) ([]*engagement.ActivityRecord, error) {
	out := make([]*engagement.ActivityRecord, 0, len(s.records))
	for _, r := range s.records {
		cp := *r
		out = append(out, &cp)
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *fakeActivityStore) GetAllSince(ctx context.Context, since time.Time) ([]*engagement.ActivityRecord, error) {
	var out []*engagement.ActivityRecord
	for _, r := range s.records {
		if r.HasDate() && !r.Date.Before(since) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *fakeActivityStore) Update(ctx context.Context, r *engagement.ActivityRecord) error {
	if _, ok := s.records[r.ID]; !ok {
		return engagement.ErrRecordNotFound
	}
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

func (s *fakeActivityStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return engagement.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *fakeActivityStore) ListUserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, r := range s.records {
		seen[r.UserID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func sortByDateDesc(rs []*engagement.ActivityRecord) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Date.Equal(rs[j].Date) {
			return rs[i].Date.After(rs[j].Date)
		}
		return rs[i].ID < rs[j].ID
	})
}

type fakeAchievementStore struct {
	unlocks []*engagement.UserAchievement
}

func (s *fakeAchievementStore) Insert(ctx context.Context, ua *engagement.UserAchievement) error {
	cp := *ua
	s.unlocks = append(s.unlocks, &cp)
	return nil
}

func (s *fakeAchievementStore) InsertMany(ctx context.Context, uas []*engagement.UserAchievement) error {
	for _, ua := range uas {
		if err := s.Insert(ctx, ua); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeAchievementStore) GetByUser(ctx context.Context, userID string) ([]*engagement.UserAchievement, error) {
	var out []*engagement.UserAchievement
	for _, u := range s.unlocks {
		if u.UserID == userID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeAchievementStore) GetAll(ctx context.Context) ([]*engagement.UserAchievement, error) {
	out := make([]*engagement.UserAchievement, 0, len(s.unlocks))
	for _, u := range s.unlocks {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

type fakeTypeStore struct {
	types map[string]*engagement.ActivityType
}

func newFakeTypeStore() *fakeTypeStore {
	s := &fakeTypeStore{types: make(map[string]*engagement.ActivityType)}
	for _, at := range engagement.DefaultActivityTypes() {
		cp := at
		s.types[at.ID] = &cp
	}
	return s
}

func (s *fakeTypeStore) Get(ctx context.Context, id string) (*engagement.ActivityType, error) {
	at, ok := s.types[id]
	if !ok {
		return nil, engagement.ErrUnknownActivityType
	}
	cp := *at
	return &cp, nil
}

func (s *fakeTypeStore) GetAll(ctx context.Context) ([]*engagement.ActivityType, error) {
	out := make([]*engagement.ActivityType, 0, len(s.types))
	for _, at := range s.types {
		cp := *at
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeTypeStore) Save(ctx context.Context, t *engagement.ActivityType) error {
	cp := *t
	s.types[t.ID] = &cp
	return nil
}

func (s *fakeTypeStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.types[id]; !ok {
		return engagement.ErrUnknownActivityType
	}
	delete(s.types, id)
	return nil
}

func (s *fakeTypeStore) SeedDefaults(ctx context.Context) error { return nil }

type fakeRoster struct {
	users map[string]*roster.User
	teams map[string]*roster.Team
}

func newFakeRoster(users ...*roster.User) *fakeRoster {
	r := &fakeRoster{
		users: make(map[string]*roster.User),
		teams: make(map[string]*roster.Team),
	}
	for _, team := range roster.DefaultTeams() {
		cp := team
		r.teams[team.ID] = &cp
	}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeRoster) SaveUser(ctx context.Context, u *roster.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeRoster) GetUser(ctx context.Context, id string) (*roster.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, roster.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRoster) GetUsers(ctx context.Context) ([]*roster.User, error) {
	out := make([]*roster.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRoster) GetUsersByTeam(ctx context.Context, teamID string) ([]*roster.User, error) {
	var out []*roster.User
	for _, u := range r.users {
		if u.TeamID == teamID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRoster) DeleteUser(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *fakeRoster) SaveTeam(ctx context.Context, team *roster.Team) error {
	cp := *team
	r.teams[team.ID] = &cp
	return nil
}

func (r *fakeRoster) GetTeam(ctx context.Context, id string) (*roster.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, roster.ErrTeamNotFound
	}
	cp := *team
	return &cp, nil
}

func (r *fakeRoster) GetTeams(ctx context.Context) ([]*roster.Team, error) {
	out := make([]*roster.Team, 0, len(r.teams))
	for _, team := range r.teams {
		cp := *team
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRoster) DeleteTeam(ctx context.Context, id string) error {
	delete(r.teams, id)
	return nil
}

func (r *fakeRoster) SeedDefaults(ctx context.Context) error { return nil }

// fakeLeaderboardCache records Get/Set traffic for cache path tests.
type fakeLeaderboardCache struct {
	stored map[string]*GetLeaderboardResult
	gets   int
	sets   int
}

func newFakeLeaderboardCache() *fakeLeaderboardCache {
	return &fakeLeaderboardCache{stored: make(map[string]*GetLeaderboardResult)}
}

func (c *fakeLeaderboardCache) key(scope LeaderboardScope, filter TimeFilter) string {
	return string(scope) + ":" + string(filter)
}

func (c *fakeLeaderboardCache) Get(ctx context.Context, scope LeaderboardScope, filter TimeFilter) (*GetLeaderboardResult, error) {
	c.gets++
	return c.stored[c.key(scope, filter)], nil
}

func (c *fakeLeaderboardCache) Set(ctx context.Context, result *GetLeaderboardResult) error {
	c.sets++
	c.stored[c.key(result.Scope, result.Filter)] = result
	return nil
}

func (c *fakeLeaderboardCache) Invalidate(ctx context.Context) error {
	c.stored = make(map[string]*GetLeaderboardResult)
	return nil
}
