package harvester

import (
	"context"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/wcs"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ErrCoverageNotFound is the cause of errors reported when a coverage
// identifier is not among the endpoint's currently advertised coverages.
// It never propagates past the worker: callers receive an absent result.
var ErrCoverageNotFound = errors.New("harvester: coverage not found")

// TopicCategories is the host platform's topic category vocabulary.
type TopicCategories interface {
	// TopicCategoryExists reports whether identifier is a known category.
	TopicCategoryExists(ctx context.Context, identifier string) (bool, error)
}

// CoverageMetadata is the flat metadata record built for one coverage.
// It is assembled fresh on every fetch and never cached.
type CoverageMetadata struct {
	Name           string
	Title          string
	Abstract       string
	Keywords       []string
	Category       string
	WCSURL         string
	SpatialExtent  orb.Polygon
	CRS            string
	TemporalExtent *TemporalExtent
}

// coverageMetadata combines the resolved extent with the coverage's
// identification into a flat record, applying defaults for absent fields.
func (w *Worker) coverageMetadata(ctx context.Context, caps *wcs.Capabilities, coverageID string) (*CoverageMetadata, error) {
	cov, ok := caps.Coverage(coverageID)
	if !ok {
		return nil, errors.Wrapf(ErrCoverageNotFound, "no coverage with id %q", coverageID)
	}
	if cov.ID == "" {
		return nil, errors.Wrap(ErrCoverageNotFound, "coverage has no id")
	}

	extent := w.resolveExtent(ctx, cov)

	metadata := &CoverageMetadata{
		Name:           cov.ID,
		Title:          cov.Title,
		Abstract:       cov.Abstract,
		Keywords:       cov.Keywords,
		WCSURL:         w.client.URL(),
		SpatialExtent:  extent.SpatialExtent,
		CRS:            extent.CRS,
		TemporalExtent: extent.TemporalExtent,
	}
	if metadata.Title == "" {
		metadata.Title = metadata.Name
	}
	if metadata.Abstract == "" {
		metadata.Abstract = notProvided
	}
	metadata.Category = w.resolveCategory(ctx, cov.Keywords)

	return metadata, nil
}

// resolveCategory returns the first keyword that exactly matches an entry
// in the topic category vocabulary. Matching is case-sensitive; no match
// and lookup failures both leave the category unset.
func (w *Worker) resolveCategory(ctx context.Context, keywords []string) string {
	if w.categories == nil {
		return ""
	}
	for _, keyword := range keywords {
		ok, err := w.categories.TopicCategoryExists(ctx, keyword)
		if err != nil {
			w.logger.Debugf("topic category lookup failed: %v", err)
			continue
		}
		if ok {
			return keyword
		}
	}
	return ""
}
