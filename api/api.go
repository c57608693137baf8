// Package api implements the administrative JSON API used to register
// remote WCS endpoints and to trigger resource inventory refreshes outside
// the host platform's scheduler.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/harvester"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/service"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/store"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/wcs"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// API carries the dependencies shared by every endpoint handler.
type API struct {
	logger        logrus.FieldLogger
	store         store.Store
	timeout       time.Duration
	registrations prometheus.Counter
}

// Option configures the API.
type Option func(*API)

// WithTimeout overrides the remote read timeout applied to the WCS calls
// made on behalf of API requests (default 60s).
func WithTimeout(timeout time.Duration) Option {
	return func(a *API) { a.timeout = timeout }
}

// WithCounter wires a counter incremented once per registered service.
func WithCounter(registrations prometheus.Counter) Option {
	return func(a *API) { a.registrations = registrations }
}

// New returns the API over the given store.
func New(logger logrus.FieldLogger, st store.Store, opts ...Option) *API {
	a := &API{
		logger:  logger,
		store:   st,
		timeout: wcs.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes installs the endpoint handlers on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/services", a.servicesHandler)
	mux.HandleFunc("/services/", a.serviceHandler)
	mux.HandleFunc("/harvesters/", a.harvesterHandler)
}

type registerRequest struct {
	URL           string                 `json:"url"`
	Owner         string                 `json:"owner"`
	Configuration map[string]interface{} `json:"configuration"`
}

type serviceResponse struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid"`
	BaseURL     string `json:"base_url"`
	Type        string `json:"type"`
	Method      string `json:"method"`
	Owner       string `json:"owner"`
	Version     string `json:"version"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	HarvesterID int64  `json:"harvester_id"`
}

func toServiceResponse(svc *store.Service) *serviceResponse {
	return &serviceResponse{
		ID:          svc.ID,
		UUID:        svc.UUID,
		BaseURL:     svc.BaseURL,
		Type:        svc.Type,
		Method:      svc.Method,
		Owner:       svc.Owner,
		Version:     svc.Version,
		Name:        svc.Name,
		Title:       svc.Title,
		Abstract:    svc.Abstract,
		HarvesterID: svc.HarvesterID,
	}
}

// servicesHandler registers a new remote endpoint.
//
//	POST /services
//	{"url": "https://ows.example.com/wcs", "owner": "admin"}
func (a *API) servicesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload := registerRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if payload.URL == "" {
		jsonError(w, http.StatusBadRequest, "url is required")
		return
	}
	if payload.Owner == "" {
		jsonError(w, http.StatusBadRequest, "owner is required")
		return
	}
	if err := harvester.ValidateConfig(payload.Configuration); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := []service.HandlerOption{service.WithTimeout(a.timeout)}
	if payload.Configuration != nil {
		opts = append(opts, service.WithHarvesterConfig(payload.Configuration))
	}
	h := service.NewHandler(a.logger, a.store, payload.URL, opts...)
	svc, err := h.Register(r.Context(), payload.Owner)
	if err != nil {
		a.logger.WithField("url", payload.URL).Errorf("Registration failed: %v", err)
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}
	if a.registrations != nil {
		a.registrations.Inc()
	}

	jsonReply(w, http.StatusCreated, toServiceResponse(svc))
}

// serviceHandler dispatches the service subresources.
//
//	GET /services/{id}/probe
func (a *API) serviceHandler(w http.ResponseWriter, r *http.Request) {
	id, rest, err := subresource(r.URL.Path, "/services/")
	if err != nil {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case rest == "probe" && r.Method == http.MethodGet:
		a.probeService(w, r, id)
	default:
		jsonError(w, http.StatusNotFound, "not found")
	}
}

func (a *API) probeService(w http.ResponseWriter, r *http.Request, id int64) {
	svc, err := a.store.GetService(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if svc == nil {
		jsonError(w, http.StatusNotFound, "service not found")
		return
	}

	h := service.NewHandler(a.logger, a.store, svc.BaseURL, service.WithTimeout(a.timeout))
	jsonReply(w, http.StatusOK, map[string]interface{}{
		"id":        svc.ID,
		"base_url":  svc.BaseURL,
		"available": h.Probe(r.Context()),
	})
}

// harvesterHandler dispatches the harvester subresources.
//
//	POST /harvesters/{id}/run
func (a *API) harvesterHandler(w http.ResponseWriter, r *http.Request) {
	id, rest, err := subresource(r.URL.Path, "/harvesters/")
	if err != nil {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case rest == "run" && r.Method == http.MethodPost:
		a.runHarvester(w, r, id)
	default:
		jsonError(w, http.StatusNotFound, "not found")
	}
}

func (a *API) runHarvester(w http.ResponseWriter, r *http.Request, id int64) {
	record, err := a.store.GetHarvester(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		jsonError(w, http.StatusNotFound, "harvester not found")
		return
	}

	opts := []service.HandlerOption{service.WithTimeout(a.timeout)}
	if len(record.TypeSpecificConfiguration) > 0 {
		opts = append(opts, service.WithHarvesterConfig(record.TypeSpecificConfiguration))
	}
	h := service.NewHandler(a.logger, a.store, record.RemoteURL, opts...)
	if err := h.Refresh(r.Context(), record.ID); err != nil {
		a.logger.WithField("harvester", record.ID).Errorf("Refresh failed: %v", err)
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}

	jsonReply(w, http.StatusOK, map[string]interface{}{
		"harvester": record.ID,
		"status":    "refreshed",
	})
}

// subresource splits "/{prefix}{id}/{rest}" into its identifier and
// trailing segment.
func subresource(path, prefix string) (int64, string, error) {
	raw, rest, _ := strings.Cut(strings.TrimPrefix(path, prefix), "/")
	id, err := cast.ToInt64E(raw)
	if err == nil && id < 1 {
		err = errors.Errorf("invalid identifier %q", raw)
	}
	return id, rest, err
}

func jsonReply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonReply(w, status, map[string]string{"error": message})
}
