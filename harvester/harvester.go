// Package harvester implements the worker that lists and fetches coverage
// metadata from remote OGC WCS endpoints on behalf of the host platform's
// harvesting subsystem.
package harvester

import (
	"context"
	"time"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/wcs"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Type is the harvester type tag stored on harvester records so the host
// platform can route them back to this worker.
const Type = "wcs"

// Worker harvests resources coming from one OGC WCS endpoint.
//
// A Worker is stateless: every operation re-reads the remote capabilities
// document, so results are always fresh and no reconciliation with cached
// state is needed. All operations are synchronous blocking network calls
// bounded by the client's timeout; retry and backoff are the calling
// scheduler's responsibility.
type Worker struct {
	remoteURL          string
	datasetTitleFilter string

	client     *wcs.Client
	categories TopicCategories
	logger     logrus.FieldLogger
	harvested  prometheus.Counter
	timeout    time.Duration
}

// Option configures a Worker.
type Option func(*Worker)

// WithTimeout overrides the remote read timeout (default 60s).
func WithTimeout(timeout time.Duration) Option {
	return func(w *Worker) { w.timeout = timeout }
}

// WithTopicCategories wires the host platform's topic category vocabulary.
// Without it every harvested resource is left uncategorized.
func WithTopicCategories(categories TopicCategories) Option {
	return func(w *Worker) { w.categories = categories }
}

// WithConfig applies a decoded harvester-type-specific configuration.
func WithConfig(cfg Config) Option {
	return func(w *Worker) { w.datasetTitleFilter = cfg.DatasetTitleFilter }
}

// WithCounter wires a counter incremented once per harvested resource.
func WithCounter(counter prometheus.Counter) Option {
	return func(w *Worker) { w.harvested = counter }
}

// New returns a worker for the given endpoint. Construction performs no
// network access.
func New(logger logrus.FieldLogger, remoteURL string, opts ...Option) (*Worker, error) {
	w := &Worker{
		remoteURL: remoteURL,
		logger:    logger,
		timeout:   wcs.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}

	client, err := wcs.New(nil, remoteURL, wcs.SetTimeout(w.timeout), wcs.SetLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "creating WCS client")
	}
	w.client = client

	return w, nil
}

// RemoteURL returns the endpoint URL this worker harvests from.
func (w *Worker) RemoteURL() string {
	return w.remoteURL
}

// capabilities re-fetches the remote capabilities document. Every caller
// gets a fresh read; nothing is cached between calls.
func (w *Worker) capabilities(ctx context.Context) (*wcs.Capabilities, error) {
	return w.client.GetCapabilities(ctx)
}

// CountAvailable returns the total number of coverages advertised by the
// endpoint.
func (w *Worker) CountAvailable(ctx context.Context) (int, error) {
	caps, err := w.capabilities(ctx)
	if err != nil {
		return 0, err
	}
	return len(caps.Coverages), nil
}

// ListResources enumerates the endpoint's coverages as brief descriptors in
// endpoint-reported order.
//
// The host's paging driver retrieves resources in batches and advances
// offset between calls. WCS has no pagination concept and dumps every
// coverage in a single GetCapabilities response, so only offset == 0
// returns anything; any other offset signals "no more pages" with an empty
// result.
func (w *Worker) ListResources(ctx context.Context, offset int) ([]BriefRemoteResource, error) {
	if offset != 0 {
		return nil, nil
	}

	caps, err := w.capabilities(ctx)
	if err != nil {
		return nil, err
	}

	resources := make([]BriefRemoteResource, 0, len(caps.Coverages))
	for _, cov := range caps.Coverages {
		title := cov.Title
		if title == "" {
			title = cov.ID
		}
		abstract := cov.Abstract
		if abstract == "" {
			abstract = notProvided
		}
		resources = append(resources, BriefRemoteResource{
			UniqueIdentifier: cov.ID,
			Title:            title,
			Abstract:         abstract,
			ResourceType:     resourceTypeLayers,
		})
	}
	return resources, nil
}

// CheckAvailability reports whether the endpoint responds and advertises at
// least one coverage. Any failure degrades to false, never an error.
func (w *Worker) CheckAvailability(ctx context.Context) bool {
	caps, err := w.capabilities(ctx)
	if err != nil {
		w.logger.WithField("url", w.remoteURL).Debugf("availability check failed: %v", err)
		return false
	}
	return len(caps.Coverages) > 0
}

// GetResource fetches one coverage and assembles its canonical resource
// description.
//
// WCS provides no resource identity, so a UUID is generated on the first
// harvest; callers pass the UUID of the existing managed resource on
// subsequent harvests to keep the identity stable. A nil result with a nil
// error means the identifier is no longer among the endpoint's coverages
// and the resource disappeared upstream.
func (w *Worker) GetResource(ctx context.Context, uniqueIdentifier string, existing *uuid.UUID) (*HarvestedResourceInfo, error) {
	caps, err := w.capabilities(ctx)
	if err != nil {
		return nil, err
	}

	metadata, err := w.coverageMetadata(ctx, caps, uniqueIdentifier)
	if err != nil {
		if errors.Cause(err) == ErrCoverageNotFound {
			w.logger.WithField("resource", uniqueIdentifier).Warnf("could not find resource: %v", err)
			return nil, nil
		}
		return nil, err
	}

	resourceUUID := uuid.New()
	if existing != nil {
		resourceUUID = *existing
	}
	now := time.Now()
	contact := contactFromProvider(caps.Provider.Contact)
	serviceName := truncate(slug.Make(w.remoteURL), 255)

	info := &HarvestedResourceInfo{
		ResourceDescriptor: RecordDescription{
			UUID:           resourceUUID,
			PointOfContact: contact,
			Author:         contact,
			DateStamp:      now,
			Identification: RecordIdentification{
				Name:           metadata.Name,
				Title:          metadata.Title,
				Date:           now,
				Originator:     contact,
				OtherKeywords:  metadata.Keywords,
				TopicCategory:  metadata.Category,
				Abstract:       metadata.Abstract,
				SpatialExtent:  metadata.SpatialExtent,
				TemporalExtent: metadata.TemporalExtent,
			},
			Distribution: RecordDistribution{
				WCSURL: metadata.WCSURL,
			},
			ReferenceSystems: []string{metadata.CRS},
			AdditionalParameters: map[string]string{
				"alternate": metadata.Name,
				"store":     serviceName,
				"workspace": remoteWorkspace,
				"ows_url":   metadata.WCSURL,
				"ptype":     layerPType,
			},
		},
	}
	if w.harvested != nil {
		w.harvested.Inc()
	}
	return info, nil
}

// contactFromProvider maps the capabilities service contact onto the record
// descriptor contact.
func contactFromProvider(contact wcs.ServiceContact) RecordContact {
	return RecordContact{
		Name:                      contact.Name,
		Organization:              contact.Organization,
		Position:                  contact.Position,
		PhoneVoice:                contact.Phone,
		AddressCity:               contact.City,
		AddressAdministrativeArea: contact.Region,
		AddressPostalCode:         contact.PostCode,
		AddressCountry:            contact.Country,
		AddressEmail:              contact.Email,
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
