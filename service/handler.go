// Package service implements first-time registration of remote WCS
// endpoints as platform service entities, paired with their harvester
// records.
package service

import (
	"context"
	"time"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/harvester"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/store"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/wcs"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// ServiceType tags every service record created by this handler.
	ServiceType = "WCS"

	// methodIndexed marks services whose resources are indexed as
	// metadata-only layers rather than cascaded.
	methodIndexed = "indexed"

	notProvided = "Not provided"
)

// Handler registers one remote WCS endpoint with the platform.
type Handler struct {
	url     string
	name    string
	store   store.Store
	logger  logrus.FieldLogger
	timeout time.Duration
	config  map[string]interface{}
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTimeout overrides the remote read timeout (default 60s).
func WithTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) { h.timeout = timeout }
}

// WithHarvesterConfig sets the harvester-type-specific configuration stored
// on the harvester record and applied to harvesting workers. The map must
// already be validated against harvester.ConfigSchema.
func WithHarvesterConfig(cfg map[string]interface{}) HandlerOption {
	return func(h *Handler) { h.config = cfg }
}

// NewHandler returns a handler for the given endpoint URL. The store may
// be nil when only Probe or GetKeywords are needed.
func NewHandler(logger logrus.FieldLogger, st store.Store, rawURL string, opts ...HandlerOption) *Handler {
	h := &Handler{
		url:     rawURL,
		name:    truncate(slug.Make(rawURL), 255),
		store:   st,
		logger:  logger,
		timeout: wcs.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// client returns a fresh WCS client for the endpoint. Calls on the
// returned client perform blocking network I/O; nothing is cached.
func (h *Handler) client() (*wcs.Client, error) {
	return wcs.New(nil, h.url, wcs.SetTimeout(h.timeout), wcs.SetLogger(h.logger))
}

// worker returns the harvesting worker used for availability checks and
// the initial resource inventory update.
func (h *Handler) worker() (*harvester.Worker, error) {
	opts := []harvester.Option{harvester.WithTimeout(h.timeout)}
	if h.store != nil {
		opts = append(opts, harvester.WithTopicCategories(h.store))
	}
	if h.config != nil {
		cfg, err := harvester.ConfigFromMap(h.config)
		if err != nil {
			return nil, err
		}
		opts = append(opts, harvester.WithConfig(cfg))
	}
	return harvester.New(h.logger, h.url, opts...)
}

// Probe reports whether the endpoint responds and advertises at least one
// coverage. Any failure degrades to false, never an error.
func (h *Handler) Probe(ctx context.Context) bool {
	w, err := h.worker()
	if err != nil {
		h.logger.WithField("url", h.url).Debugf("probe failed: %v", err)
		return false
	}
	return w.CheckAvailability(ctx)
}

// GetKeywords returns the keywords advertised in the endpoint's service
// identification block.
func (h *Handler) GetKeywords(ctx context.Context) ([]string, error) {
	c, err := h.client()
	if err != nil {
		return nil, err
	}
	caps, err := c.GetCapabilities(ctx)
	if err != nil {
		return nil, err
	}
	return caps.Identification.Keywords, nil
}

// Register creates the persisted service entity and its paired harvester
// record in a single transaction, pulling title and abstract live from the
// endpoint and defaulting to a slug of the URL where they are empty.
//
// After creation the endpoint is probed once: when reachable, an initial
// harvestable resource update is started asynchronously; otherwise the
// failure is logged and registration still completes, leaving the service
// configured but unreachable for the host scheduler to retry.
func (h *Handler) Register(ctx context.Context, owner string) (*store.Service, error) {
	if h.store == nil {
		return nil, errors.New("no store configured")
	}

	c, err := h.client()
	if err != nil {
		return nil, err
	}
	caps, err := c.GetCapabilities(ctx)
	if err != nil {
		return nil, err
	}

	title := caps.Identification.Title
	if title == "" {
		title = h.name
	}
	abstract := caps.Identification.Abstract
	if abstract == "" {
		abstract = notProvided
	}

	service := &store.Service{
		UUID:         uuid.New().String(),
		BaseURL:      c.URL(),
		Type:         ServiceType,
		Method:       methodIndexed,
		Owner:        owner,
		MetadataOnly: true,
		Version:      caps.Version,
		Name:         h.name,
		Title:        title,
		Abstract:     abstract,
	}
	record := &store.Harvester{
		Name:                      h.name,
		DefaultOwner:              owner,
		SchedulingEnabled:         false,
		RemoteURL:                 c.URL(),
		DeleteOrphanResources:     true,
		HarvesterType:             harvester.Type,
		TypeSpecificConfiguration: map[string]interface{}{},
	}
	if h.config != nil {
		record.TypeSpecificConfiguration = h.config
	}
	if err := h.store.CreateServiceWithHarvester(ctx, service, record); err != nil {
		return nil, err
	}

	w, err := h.worker()
	if err != nil {
		return nil, err
	}
	if w.CheckAvailability(ctx) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
			defer cancel()
			if err := h.Refresh(ctx, record.ID); err != nil {
				h.logger.WithField("harvester", record.ID).Errorf("Initial resource update failed: %v", err)
			}
		}()
	} else {
		h.logger.WithField("url", h.url).Error("Could not reach remote endpoint.")
	}

	return service, nil
}

// Refresh rebuilds the harvester's resource inventory from the endpoint's
// current coverage listing. It runs after registration and whenever a
// refresh is requested explicitly; the host scheduler retries on failure.
func (h *Handler) Refresh(ctx context.Context, harvesterID int64) error {
	if h.store == nil {
		return errors.New("no store configured")
	}

	w, err := h.worker()
	if err != nil {
		return err
	}
	brief, err := w.ListResources(ctx, 0)
	if err != nil {
		return errors.Wrap(err, "listing remote resources")
	}
	resources := make([]store.HarvestableResource, 0, len(brief))
	for _, b := range brief {
		resources = append(resources, store.HarvestableResource{
			HarvesterID:        harvesterID,
			UniqueIdentifier:   b.UniqueIdentifier,
			Title:              b.Title,
			Abstract:           b.Abstract,
			RemoteResourceType: b.ResourceType,
		})
	}
	if err := h.store.UpsertHarvestableResources(ctx, harvesterID, resources); err != nil {
		return errors.Wrap(err, "storing resource inventory")
	}
	h.logger.WithFields(logrus.Fields{
		"harvester": harvesterID,
		"resources": len(resources),
	}).Info("Resource inventory stored")
	return nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
