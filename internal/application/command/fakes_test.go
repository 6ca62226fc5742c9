package command

import (
	"context"
	"sort"
	"time"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// Shared by the command handler tests. Maps keyed by ID; no concurrency
// guarantees needed here.
// ══════════════════════════════════════════════════════════════════════════════

type fakeActivityStore struct {
	records map[string]*engagement.ActivityRecord

	// failSaveBatch forces SaveBatch to fail, for all-or-nothing tests.
	failSaveBatch error

	// failGetByUser fails GetByUser for specific users, for the backfill
	// per-user error collection tests.
	failGetByUser map[string]error
}

func newFakeActivityStore() *fakeActivityStore {
	return &fakeActivityStore{records: make(map[string]*engagement.ActivityRecord)}
}

func (s *fakeActivityStore) Save(ctx context.Context, r *engagement.ActivityRecord) error {
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

func (s *fakeActivityStore) SaveBatch(ctx context.Context, rs []*engagement.ActivityRecord) error {
	if s.failSaveBatch != nil {
		return s.failSaveBatch
	}
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
	if err := s.failGetByUser[userID]; err != nil {
		return nil, err
	}
	var out []*engagement.ActivityRecord
	for _, r := range s.records {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
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
	return out, nil
}

func (s *fakeActivityStore) GetAll(ctx context.Context) ([]*engagement.ActivityRecord, error) {
	var out []*engagement.ActivityRecord
	for _, r := range s.records {
		cp := *r
		out = append(out, &cp)
	}
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

type fakeAchievementStore struct {
	unlocks []*engagement.UserAchievement
}

func newFakeAchievementStore() *fakeAchievementStore {
	return &fakeAchievementStore{}
}

func (s *fakeAchievementStore) owns(userID, achievementID string) bool {
	for _, u := range s.unlocks {
		if u.UserID == userID && u.AchievementID == achievementID {
			return true
		}
	}
	return false
}

func (s *fakeAchievementStore) Insert(ctx context.Context, ua *engagement.UserAchievement) error {
	// Duplicates ignored, like the uniqueness constraint in storage.
	if s.owns(ua.UserID, ua.AchievementID) {
		return nil
	}
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

	// Mirrors the storage layer's FK cascade when set: deleting a type
	// takes its logged activities with it.
	activities *fakeActivityStore
}

func newFakeTypeStore(types ...engagement.ActivityType) *fakeTypeStore {
	s := &fakeTypeStore{types: make(map[string]*engagement.ActivityType)}
	if len(types) == 0 {
		types = engagement.DefaultActivityTypes()
	}
	for _, at := range types {
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
	at, ok := s.types[id]
	if !ok {
		return engagement.ErrUnknownActivityType
	}
	if !at.IsCustom {
		return engagement.ErrUnknownActivityType
	}
	delete(s.types, id)
	if s.activities != nil {
		for recID, rec := range s.activities.records {
			if rec.ActivityTypeID == id {
				delete(s.activities.records, recID)
			}
		}
	}
	return nil
}

func (s *fakeTypeStore) SeedDefaults(ctx context.Context) error {
	for _, at := range engagement.DefaultActivityTypes() {
		if _, ok := s.types[at.ID]; !ok {
			cp := at
			s.types[at.ID] = &cp
		}
	}
	return nil
}

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
	if _, ok := r.users[id]; !ok {
		return roster.ErrUserNotFound
	}
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
	if _, ok := r.teams[id]; !ok {
		return roster.ErrTeamNotFound
	}
	delete(r.teams, id)
	for _, u := range r.users {
		if u.TeamID == id {
			u.TeamID = ""
		}
	}
	return nil
}

func (r *fakeRoster) SeedDefaults(ctx context.Context) error {
	for _, team := range roster.DefaultTeams() {
		if _, ok := r.teams[team.ID]; !ok {
			cp := team
			r.teams[team.ID] = &cp
		}
	}
	return nil
}
