package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/openchami/fleet-parity/internal/storage"
	fleet_middleware "github.com/openchami/fleet-parity/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func getHost(myStorage storage.HostStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostname := chi.URLParam(r, "hostname")
		host, err := myStorage.GetHost(hostname)
		if errors.Is(err, storage.ErrNotFound) {
			render.Render(w, r, ErrNotFound)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("hostname", hostname).Msg("Error reading host")
			render.Render(w, r, ErrInternalServer)
			return
		}
		render.JSON(w, r, host)
	}
}

func searchHosts(myStorage storage.HostStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		var searchOptions []storage.HostSearchOption

		if v := query.Get("location"); v != "" {
			searchOptions = append(searchOptions, storage.WithLocation(v))
		}
		if v := query.Get("chassis"); v != "" {
			searchOptions = append(searchOptions, storage.WithChassis(v))
		}
		if v := query.Get("os_version"); v != "" {
			searchOptions = append(searchOptions, storage.WithOSVersion(v))
		}
		if v := query.Get("bmc_address"); v != "" {
			searchOptions = append(searchOptions, storage.WithBMCAddress(v))
		}
		if v := query.Get("mac"); v != "" {
			searchOptions = append(searchOptions, storage.WithMAC(v))
		}
		if v := query.Get("virtual"); v != "" {
			virtual, err := strconv.ParseBool(v)
			if err != nil {
				render.Render(w, r, ErrInvalidRequest(fmt.Errorf("invalid virtual value %q", v)))
				return
			}
			searchOptions = append(searchOptions, storage.WithVirtual(virtual))
		}
		if query.Get("missing_ipv4") == "true" {
			searchOptions = append(searchOptions, storage.WithMissingIPv4())
		}
		if query.Get("missing_ipv6") == "true" {
			searchOptions = append(searchOptions, storage.WithMissingIPv6())
		}

		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Msg("Dispatching host search to storage")

		hosts, err := myStorage.SearchHosts(searchOptions...)
		if err != nil {
			log.Error().Err(err).Msg("Error searching hosts")
			render.Render(w, r, ErrInternalServer)
			return
		}

		// If the logging middleware is loaded, add event details
		if requestLogger, ok := r.Context().Value(fleet_middleware.LoggerKey).(*zerolog.Logger); ok {
			*requestLogger = requestLogger.With().
				Int("num_hosts", len(hosts)).
				Str("event_type", "search_hosts").
				Logger()
		}

		render.JSON(w, r, hosts)
	}
}
