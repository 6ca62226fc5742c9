package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prodigal-hub/engagement-hub/config"
	"github.com/prodigal-hub/engagement-hub/internal/application/command"
	"github.com/prodigal-hub/engagement-hub/internal/application/query"
	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
	"github.com/prodigal-hub/engagement-hub/pkg/logger"
	"github.com/prodigal-hub/engagement-hub/pkg/timeutil"
)

// RosterReader is the read-only slice of the roster repository the API
// needs for plain listings.
type RosterReader interface {
	GetUsers(ctx context.Context) ([]*roster.User, error)
	GetTeams(ctx context.Context) ([]*roster.Team, error)
}

// TypeReader serves the activity type catalog.
type TypeReader interface {
	GetAll(ctx context.Context) ([]*engagement.ActivityType, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE DTOs
// Domain entities carry no JSON tags; the API maps them to snake_case
// payloads here so wire shape and domain shape can evolve separately.
// ══════════════════════════════════════════════════════════════════════════════

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeamID    string    `json:"team_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type teamResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type activityTypeResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Points           int       `json:"points"`
	IsChecklistStyle bool      `json:"is_checklist_style"`
	IsCustom         bool      `json:"is_custom"`
	CreatedAt        time.Time `json:"created_at"`
}

type totalsResponse struct {
	TotalPoints     int `json:"total_points"`
	TotalActivities int `json:"total_activities"`
	CurrentStreak   int `json:"current_streak"`
}

type activityRecordResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	ActivityTypeID string `json:"activity_type_id"`
	Quantity       int    `json:"quantity"`
	Points         int    `json:"points"`
	Date           string `json:"date,omitempty"`
}

type unlockedRuleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type submitActivitiesResponse struct {
	Records       []activityRecordResponse `json:"records"`
	Totals        totalsResponse           `json:"totals"`
	Unlocked      []unlockedRuleResponse   `json:"unlocked"`
	StreakMessage string                   `json:"streak_message,omitempty"`
}

type backfillResponse struct {
	UsersProcessed      int                 `json:"users_processed"`
	AchievementsGranted int                 `json:"achievements_granted"`
	Granted             map[string][]string `json:"granted,omitempty"`
	Errors              map[string]string   `json:"errors,omitempty"`
	StartedAt           time.Time           `json:"started_at"`
	FinishedAt          time.Time           `json:"finished_at"`
}

func toUserResponse(u *roster.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, TeamID: u.TeamID, CreatedAt: u.CreatedAt}
}

func toTeamResponse(t *roster.Team) teamResponse {
	return teamResponse{ID: t.ID, Name: t.Name, Color: t.Color, CreatedAt: t.CreatedAt}
}

func toActivityTypeResponse(at *engagement.ActivityType) activityTypeResponse {
	return activityTypeResponse{
		ID:               at.ID,
		Name:             at.Name,
		Points:           at.Points,
		IsChecklistStyle: at.IsChecklistStyle,
		IsCustom:         at.IsCustom,
		CreatedAt:        at.CreatedAt,
	}
}

func toTotalsResponse(t engagement.Totals) totalsResponse {
	return totalsResponse{
		TotalPoints:     t.TotalPoints,
		TotalActivities: t.TotalActivities,
		CurrentStreak:   t.CurrentStreak,
	}
}

func toRecordResponse(r *engagement.ActivityRecord) activityRecordResponse {
	resp := activityRecordResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		ActivityTypeID: r.ActivityTypeID,
		Quantity:       r.Quantity,
		Points:         r.Points,
	}
	if r.HasDate() {
		resp.Date = r.Date.UTC().Format(time.RFC3339)
	}
	return resp
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Prodigal Engagement Hub API",
		"version":     "v1",
		"description": "Activity tracking, streaks and achievements for the Prodigal community",
		"endpoints": map[string]string{
			"health":      "/health",
			"submit":      "/api/v1/activities",
			"user_stats":  "/api/v1/users/{id}/stats",
			"team_stats":  "/api/v1/teams/{id}/stats",
			"leaderboard": "/api/v1/leaderboard",
			"export":      "/api/v1/export/activities.csv",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// submissionItemRequest is one line of a batch submission.
type submissionItemRequest struct {
	ActivityTypeID string `json:"activity_type_id"`
	Quantity       int    `json:"quantity"`

	// Date in "2006-01-02" or RFC 3339 format. Empty means unknown:
	// the record counts toward totals but never toward the streak.
	Date string `json:"date,omitempty"`
}

// submitActivitiesRequest is the body of POST /api/v1/activities.
type submitActivitiesRequest struct {
	UserID string                  `json:"user_id"`
	Items  []submissionItemRequest `json:"items"`
}

// handleSubmitActivities handles POST /api/v1/activities
func (s *Server) handleSubmitActivities(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitActivitiesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Submission handler not configured")
		return
	}

	var req submitActivitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return
	}

	cmd := command.SubmitActivitiesCommand{
		UserID: req.UserID,
		Items:  make([]command.SubmissionItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		date, err := parseSubmissionDate(item.Date)
		if err != nil {
			writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_date",
				"Item date must be YYYY-MM-DD or RFC 3339", item.Date)
			return
		}
		cmd.Items = append(cmd.Items, command.SubmissionItem{
			ActivityTypeID: item.ActivityTypeID,
			Quantity:       item.Quantity,
			Date:           date,
		})
	}

	result, err := s.deps.SubmitActivitiesHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err, "Failed to submit activities")
		return
	}

	s.invalidateLeaderboard(r.Context())

	resp := submitActivitiesResponse{
		Records:  make([]activityRecordResponse, 0, len(result.Records)),
		Totals:   toTotalsResponse(result.Totals),
		Unlocked: make([]unlockedRuleResponse, 0, len(result.Unlocked)),
	}
	for _, rec := range result.Records {
		resp.Records = append(resp.Records, toRecordResponse(rec))
	}
	for _, rule := range result.Unlocked {
		resp.Unlocked = append(resp.Unlocked, unlockedRuleResponse{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Icon:        rule.Icon,
		})
	}
	if s.featureEnabled(config.FeatureStreakMessages) {
		resp.StreakMessage = result.StreakMessage
	}

	writeJSON(w, http.StatusCreated, resp)
}

// parseSubmissionDate accepts a civil date or a full timestamp.
// Empty input maps to the zero time, meaning "date unknown".
func parseSubmissionDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := timeutil.ParseDate(raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS & LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetUserStats handles GET /api/v1/users/{id}/stats
func (s *Server) handleGetUserStats(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}
	if s.deps.GetUserStatsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Stats handler not configured")
		return
	}

	filter, err := query.ParseTimeFilter(getQueryParam(r, "filter", ""))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_filter", "Filter must be one of: all, today, week, month")
		return
	}

	q := query.GetUserStatsQuery{
		UserID:      userID,
		Filter:      filter,
		RecentLimit: getQueryParamInt(r, "recent", 0),
	}

	result, err := s.deps.GetUserStatsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err, "Failed to get user stats")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetTeamStats handles GET /api/v1/teams/{id}/stats
func (s *Server) handleGetTeamStats(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	if teamID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Team ID is required")
		return
	}
	if s.deps.GetTeamStatsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Stats handler not configured")
		return
	}

	filter, err := query.ParseTimeFilter(getQueryParam(r, "filter", ""))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_filter", "Filter must be one of: all, today, week, month")
		return
	}

	result, err := s.deps.GetTeamStatsHandler.Handle(r.Context(), query.GetTeamStatsQuery{
		TeamID: teamID,
		Filter: filter,
	})
	if err != nil {
		s.writeDomainError(w, err, "Failed to get team stats")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	scope := query.LeaderboardScope(getQueryParam(r, "scope", string(query.ScopeUsers)))
	if scope == query.ScopeTeams && !s.featureEnabled(config.FeatureLeaderboardTeams) {
		writeJSONError(w, http.StatusNotFound, "feature_disabled", "Team leaderboard is disabled")
		return
	}

	filter, err := query.ParseTimeFilter(getQueryParam(r, "filter", ""))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_filter", "Filter must be one of: all, today, week, month")
		return
	}

	q := query.GetLeaderboardQuery{
		Scope:  scope,
		Filter: filter,
		Limit:  getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to get leaderboard", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleExportCSV handles GET /api/v1/export/activities.csv
//
// Unlike the JSON endpoints this one streams a raw CSV attachment.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(config.FeatureReportCSVExport) {
		writeJSONError(w, http.StatusNotFound, "feature_disabled", "CSV export is disabled")
		return
	}
	if s.deps.ExportCSVHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Export handler not configured")
		return
	}

	filter, err := query.ParseTimeFilter(getQueryParam(r, "filter", ""))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_filter", "Filter must be one of: all, today, week, month")
		return
	}

	result, err := s.deps.ExportCSVHandler.Handle(r.Context(), query.ExportCSVQuery{
		Filter: filter,
		TeamID: getQueryParam(r, "team_id", ""),
	})
	if err != nil {
		s.writeDomainError(w, err, "Failed to export activities")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Content)
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER & CATALOG LISTINGS
// ══════════════════════════════════════════════════════════════════════════════

// handleListUsers handles GET /api/v1/users
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.deps.RosterReader == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Roster not configured")
		return
	}

	users, err := s.deps.RosterReader.GetUsers(r.Context())
	if err != nil {
		s.logger.Error("failed to list users", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list users")
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": out,
		"count": len(out),
	})
}

// handleListTeams handles GET /api/v1/teams
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	if s.deps.RosterReader == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Roster not configured")
		return
	}

	teams, err := s.deps.RosterReader.GetTeams(r.Context())
	if err != nil {
		s.logger.Error("failed to list teams", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list teams")
		return
	}

	out := make([]teamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"teams": out,
		"count": len(out),
	})
}

// handleListActivityTypes handles GET /api/v1/activity-types
func (s *Server) handleListActivityTypes(w http.ResponseWriter, r *http.Request) {
	if s.deps.TypeReader == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Catalog not configured")
		return
	}

	types, err := s.deps.TypeReader.GetAll(r.Context())
	if err != nil {
		s.logger.Error("failed to list activity types", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list activity types")
		return
	}

	out := make([]activityTypeResponse, 0, len(types))
	for _, at := range types {
		out = append(out, toActivityTypeResponse(at))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activity_types": out,
		"count":          len(out),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleVerifyPIN handles POST /api/v1/admin/verify
//
// The dashboard calls this once before showing admin controls. The PIN
// still travels with every admin request; no server-side session state.
func (s *Server) handleVerifyPIN(w http.ResponseWriter, r *http.Request) {
	if s.deps.AdminAuth == nil {
		writeJSONError(w, http.StatusForbidden, "admin_disabled", "Admin API is not configured")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return
	}

	if !s.deps.AdminAuth.Verify(req.PIN) {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Incorrect PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verified":   true,
		"valid_for":  s.deps.AdminAuth.SessionTTL().String(),
		"applied_at": time.Now().UTC(),
	})
}

// handleCreateUser handles POST /api/v1/users
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		TeamID string `json:"team_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return
	}

	user, err := s.deps.ManageRosterHandler.HandleCreateUser(r.Context(), command.CreateUserCommand{
		Name:   req.Name,
		TeamID: req.TeamID,
	})
	if err != nil {
		s.writeDomainError(w, err, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// handleAssignTeam handles PUT /api/v1/users/{id}/team
func (s *Server) handleAssignTeam(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var req struct {
		TeamID string `json:"team_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return
	}

	user, err := s.deps.ManageRosterHandler.HandleAssignTeam(r.Context(), userID, req.TeamID)
	if err != nil {
		s.writeDomainError(w, err, "Failed to assign team")
		return
	}

	s.invalidateLeaderboard(r.Context())
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleDeleteUser handles DELETE /api/v1/users/{id}
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	if err := s.deps.ManageRosterHandler.HandleDeleteUser(r.Context(), userID); err != nil {
		s.writeDomainError(w, err, "Failed to delete user")
		return
	}

	s.invalidateLeaderboard(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"deleted": userID})
}

// handleCreateTeam handles POST /api/v1/teams
func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return
	}

	team, err := s.deps.ManageRosterHandler.HandleCreateTeam(r.Context(), command.CreateTeamCommand{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		s.writeDomainError(w, err, "Failed to create team")
		return
	}

	writeJSON(w, http.StatusCreated, toTeamResponse(team))
}

// handleDeleteTeam handles DELETE /api/v1/teams/{id}
func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")

	if err := s.deps.ManageRosterHandler.HandleDeleteTeam(r.Context(), teamID); err != nil {
		s.writeDomainError(w, err, "Failed to delete team")
		return
	}

	s.invalidateLeaderboard(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"deleted": teamID})
}

// handleCreateActivityType handles POST /api/v1/activity-types
func (s *Server) handleCreateActivityType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string `json:"name"`
		Points           int    `json:"points"`
		IsChecklistStyle bool   `json:"is_checklist_style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return
	}

	at, err := s.deps.ManageTypesHandler.HandleCreate(r.Context(), command.CreateActivityTypeCommand{
		Name:             req.Name,
		Points:           req.Points,
		IsChecklistStyle: req.IsChecklistStyle,
	})
	if err != nil {
		s.writeDomainError(w, err, "Failed to create activity type")
		return
	}

	writeJSON(w, http.StatusCreated, toActivityTypeResponse(at))
}

// handleUpdateActivityType handles PUT /api/v1/activity-types/{id}
func (s *Server) handleUpdateActivityType(w http.ResponseWriter, r *http.Request) {
	typeID := r.PathValue("id")

	var req struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return
	}

	at, err := s.deps.ManageTypesHandler.HandleUpdate(r.Context(), command.UpdateActivityTypeCommand{
		TypeID: typeID,
		Name:   req.Name,
		Points: req.Points,
	})
	if err != nil {
		s.writeDomainError(w, err, "Failed to update activity type")
		return
	}

	writeJSON(w, http.StatusOK, toActivityTypeResponse(at))
}

// handleDeleteActivityType handles DELETE /api/v1/activity-types/{id}
func (s *Server) handleDeleteActivityType(w http.ResponseWriter, r *http.Request) {
	typeID := r.PathValue("id")

	if err := s.deps.ManageTypesHandler.HandleDelete(r.Context(), typeID); err != nil {
		s.writeDomainError(w, err, "Failed to delete activity type")
		return
	}

	// The delete cascades to the type's logged activities, so standings
	// may have moved.
	s.invalidateLeaderboard(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"deleted": typeID})
}

// handleUpdateActivity handles PUT /api/v1/activities/{id}
func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")

	// Both fields are optional; stored points are never re-derived from
	// the activity type, so a points override is taken verbatim.
	var req struct {
		Quantity *int `json:"quantity"`
		Points   *int `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return
	}

	record, totals, err := s.deps.ManageActivityHandler.HandleUpdate(r.Context(), command.UpdateActivityCommand{
		RecordID: recordID,
		Quantity: req.Quantity,
		Points:   req.Points,
	})
	if err != nil {
		s.writeDomainError(w, err, "Failed to update activity")
		return
	}

	s.invalidateLeaderboard(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"record": toRecordResponse(record),
		"totals": toTotalsResponse(totals),
	})
}

// handleDeleteActivity handles DELETE /api/v1/activities/{id}
func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")

	totals, err := s.deps.ManageActivityHandler.HandleDelete(r.Context(), command.DeleteActivityCommand{
		RecordID: recordID,
	})
	if err != nil {
		s.writeDomainError(w, err, "Failed to delete activity")
		return
	}

	s.invalidateLeaderboard(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": recordID,
		"totals":  toTotalsResponse(totals),
	})
}

// handleBackfill handles POST /api/v1/admin/backfill
//
// Re-evaluates achievements for the listed users, or for everyone when
// the body is empty. The scheduled worker runs the same command hourly;
// this endpoint exists for on-demand runs after rule changes.
func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if s.deps.BackfillAchievementsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Backfill handler not configured")
		return
	}

	var req struct {
		UserIDs []string `json:"user_ids,omitempty"`
	}
	// Empty bodies are fine: backfill everyone.
	_ = json.NewDecoder(r.Body).Decode(&req)

	result, err := s.deps.BackfillAchievementsHandler.Handle(r.Context(), command.BackfillAchievementsCommand{
		UserIDs: req.UserIDs,
	})
	if err != nil {
		s.logger.Error("backfill failed", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Backfill failed")
		return
	}

	resp := backfillResponse{
		UsersProcessed:      result.UsersProcessed,
		AchievementsGranted: result.AchievementsGranted,
		Granted:             result.Granted,
		StartedAt:           result.StartedAt,
		FinishedAt:          result.FinishedAt,
	}
	if len(result.Errors) > 0 {
		resp.Errors = make(map[string]string, len(result.Errors))
		for userID, userErr := range result.Errors {
			resp.Errors[userID] = userErr.Error()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain errors to HTTP status codes. Anything
// unrecognized is treated as an internal error and logged.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, roster.ErrUserNotFound):
		writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, roster.ErrTeamNotFound):
		writeJSONError(w, http.StatusNotFound, "team_not_found", "Team not found")
	case errors.Is(err, engagement.ErrRecordNotFound):
		writeJSONError(w, http.StatusNotFound, "record_not_found", "Activity record not found")
	case errors.Is(err, engagement.ErrUnknownActivityType):
		writeJSONError(w, http.StatusBadRequest, "unknown_activity_type", "Unknown activity type")
	case errors.Is(err, engagement.ErrInvalidQuantity):
		writeJSONError(w, http.StatusBadRequest, "invalid_quantity", "Quantity out of range for this activity type")
	case errors.Is(err, engagement.ErrNegativePoints):
		writeJSONError(w, http.StatusBadRequest, "invalid_points", "Points must be non-negative")
	case errors.Is(err, roster.ErrEmptyName):
		writeJSONError(w, http.StatusBadRequest, "invalid_name", "Name cannot be empty")
	case errors.Is(err, roster.ErrDuplicateName):
		writeJSONError(w, http.StatusConflict, "duplicate_name", "Name already taken")
	case isValidationError(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_request", fallback, err.Error())
	default:
		s.logger.Error(fallback, logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// isValidationError reports whether the error came from a command or
// query Validate method. Those errors are safe to echo to the client.
func isValidationError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"submit_activities:", "update_activity:", "delete_activity:",
		"create_activity_type:", "update_activity_type:", "stats:", "leaderboard:", "export:"} {
		if len(msg) >= len(prefix) && msg[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// invalidateLeaderboard drops cached standings after a write. Cache
// failures are logged, never surfaced: the next read rebuilds anyway.
func (s *Server) invalidateLeaderboard(ctx context.Context) {
	if s.deps.LeaderboardCache == nil {
		return
	}
	if err := s.deps.LeaderboardCache.Invalidate(ctx); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", logger.Err(err))
	}
}

// featureEnabled treats a missing flag registry as "everything on".
func (s *Server) featureEnabled(name string) bool {
	if s.deps.Features == nil {
		return true
	}
	return s.deps.Features.IsEnabled(name)
}
