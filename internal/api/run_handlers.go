package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/openchami/fleet-parity/pkg/fleet"
	fleet_middleware "github.com/openchami/fleet-parity/pkg/middleware"
	"github.com/openchami/fleet-parity/pkg/parity"
)

// RunSummary is the body of GET /run and POST /refresh.
type RunSummary struct {
	RunID      string   `json:"run_id"`
	Hosts      int      `json:"hosts"`
	Issues     int      `json:"issues"`
	Violations int      `json:"violations"`
	Skipped    []string `json:"skipped"`
	Passed     bool     `json:"passed"`
}

func (s *State) summary() RunSummary {
	export := s.Get()
	skipped := export.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return RunSummary{
		RunID:      export.RunID,
		Hosts:      len(export.Hosts),
		Issues:     len(export.Issues),
		Violations: len(export.Violations),
		Skipped:    skipped,
		Passed:     !export.Failed(),
	}
}

func getRun(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, state.summary())
	}
}

func getViolations(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rule := r.URL.Query().Get("rule")
		violations := []parity.Violation{}
		for _, v := range state.Get().Violations {
			if rule == "" || string(v.Rule) == rule {
				violations = append(violations, v)
			}
		}
		render.JSON(w, r, violations)
	}
}

func getIssues(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := r.URL.Query().Get("kind")
		issues := []fleet.Issue{}
		for _, issue := range state.Get().Issues {
			if kind == "" || string(issue.Kind) == kind {
				issues = append(issues, issue)
			}
		}
		render.JSON(w, r, issues)
	}
}

func postRefresh(state *State, runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := fleet_middleware.Logger(r.Context())
		export, err := state.Refresh(r.Context(), runner)
		if err != nil {
			logger.Error().Err(err).Msg("Refresh failed")
			render.Render(w, r, ErrRefreshFailed(err))
			return
		}
		logger.Info().
			Str("run_id", export.RunID).
			Int("hosts", len(export.Hosts)).
			Int("violations", len(export.Violations)).
			Str("event_type", "refresh").
			Msg("Fleet refreshed")
		render.JSON(w, r, state.summary())
	}
}
