package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openchami/fleet-parity/internal/storage"
)

// Routes mounts the API. authMiddlewares guard the mutating routes.
func Routes(myStorage storage.HostStorage, state *State, runner Runner, authMiddlewares []func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(authMiddlewares...).Post("/refresh", postRefresh(state, runner))

	r.Get("/hosts", searchHosts(myStorage))
	r.Get("/hosts/{hostname}", getHost(myStorage))
	r.Get("/violations", getViolations(state))
	r.Get("/issues", getIssues(state))
	r.Get("/run", getRun(state))

	return r
}
