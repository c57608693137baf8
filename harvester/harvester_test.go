package harvester

import (
	"context"
	"net/http"
	"testing"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vocabulary is an in-memory topic category vocabulary.
type vocabulary map[string]bool

func (v vocabulary) TopicCategoryExists(_ context.Context, identifier string) (bool, error) {
	return v[identifier], nil
}

type failingVocabulary struct{}

func (failingVocabulary) TopicCategoryExists(context.Context, string) (bool, error) {
	return false, errors.New("vocabulary unavailable")
}

func capabilitiesHandler() testutil.WCSHandler {
	wgs84 := [4]float64{10, 20, 30, 40}
	return testutil.WCSHandler{
		CapabilitiesXML: testutil.Capabilities(
			"Test WCS", "A test endpoint",
			testutil.CoverageFixture{
				ID:       "AverageTemperature",
				Title:    "Average Temperature",
				Abstract: "Monthly averages",
				Keywords: []string{"Hydrology", "OtherTag"},
				WGS84:    &wgs84,
			},
			testutil.CoverageFixture{ID: "Elevation"},
		),
	}
}

func TestCountAvailable(t *testing.T) {
	w, done := testWorker(t, capabilitiesHandler())
	defer done()

	count, err := w.CountAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListResources(t *testing.T) {
	w, done := testWorker(t, capabilitiesHandler())
	defer done()

	resources, err := w.ListResources(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, resources, 2)

	assert.Equal(t, BriefRemoteResource{
		UniqueIdentifier: "AverageTemperature",
		Title:            "Average Temperature",
		Abstract:         "Monthly averages",
		ResourceType:     "layers",
	}, resources[0])

	// Title and abstract fall back when the endpoint omits them.
	assert.Equal(t, BriefRemoteResource{
		UniqueIdentifier: "Elevation",
		Title:            "Elevation",
		Abstract:         "Not provided",
		ResourceType:     "layers",
	}, resources[1])
}

func TestListResourcesNonZeroOffset(t *testing.T) {
	w, done := testWorker(t, capabilitiesHandler())
	defer done()

	for _, offset := range []int{1, 2, 100, -1} {
		resources, err := w.ListResources(context.Background(), offset)
		require.NoError(t, err)
		assert.Empty(t, resources)
	}
}

func TestCheckAvailability(t *testing.T) {
	t.Run("endpoint with coverages", func(t *testing.T) {
		w, done := testWorker(t, capabilitiesHandler())
		defer done()
		assert.True(t, w.CheckAvailability(context.Background()))
	})

	t.Run("endpoint without coverages", func(t *testing.T) {
		w, done := testWorker(t, testutil.WCSHandler{
			CapabilitiesXML: testutil.Capabilities("Empty", "No coverages"),
		})
		defer done()
		assert.False(t, w.CheckAvailability(context.Background()))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		w, done := testWorker(t, testutil.WCSHandler{Status: http.StatusBadGateway})
		defer done()
		assert.False(t, w.CheckAvailability(context.Background()))
	})
}

func TestGetResource(t *testing.T) {
	w, done := testWorker(t, capabilitiesHandler())
	defer done()
	w.categories = vocabulary{"Hydrology": true}

	info, err := w.GetResource(context.Background(), "AverageTemperature", nil)
	require.NoError(t, err)
	require.NotNil(t, info)

	desc := info.ResourceDescriptor
	assert.NotEqual(t, uuid.Nil, desc.UUID)
	assert.Equal(t, "AverageTemperature", desc.Identification.Name)
	assert.Equal(t, "Average Temperature", desc.Identification.Title)
	assert.Equal(t, "Monthly averages", desc.Identification.Abstract)
	assert.Equal(t, []string{"Hydrology", "OtherTag"}, desc.Identification.OtherKeywords)
	assert.Equal(t, "Hydrology", desc.Identification.TopicCategory)
	assert.Nil(t, desc.Identification.TemporalExtent)
	assert.Equal(t, []string{"EPSG:4326"}, desc.ReferenceSystems)
	assert.Equal(t, "Jane Roe", desc.PointOfContact.Name)
	assert.Equal(t, desc.PointOfContact, desc.Author)
	assert.Equal(t, w.client.URL(), desc.Distribution.WCSURL)

	params := desc.AdditionalParameters
	assert.Equal(t, "AverageTemperature", params["alternate"])
	assert.Equal(t, "remoteWorkspace", params["workspace"])
	assert.Equal(t, "gxp_wcssource", params["ptype"])
	assert.Equal(t, w.client.URL(), params["ows_url"])
	assert.NotEmpty(t, params["store"])
}

func TestGetResourceIdentity(t *testing.T) {
	w, done := testWorker(t, capabilitiesHandler())
	defer done()

	t.Run("fresh UUID per first harvest", func(t *testing.T) {
		first, err := w.GetResource(context.Background(), "Elevation", nil)
		require.NoError(t, err)
		second, err := w.GetResource(context.Background(), "Elevation", nil)
		require.NoError(t, err)
		assert.NotEqual(t, first.ResourceDescriptor.UUID, second.ResourceDescriptor.UUID)
	})

	t.Run("existing identity reused", func(t *testing.T) {
		existing := uuid.New()
		first, err := w.GetResource(context.Background(), "Elevation", &existing)
		require.NoError(t, err)
		second, err := w.GetResource(context.Background(), "Elevation", &existing)
		require.NoError(t, err)
		assert.Equal(t, existing, first.ResourceDescriptor.UUID)
		assert.Equal(t, existing, second.ResourceDescriptor.UUID)
	})
}

func TestGetResourceDisappeared(t *testing.T) {
	w, done := testWorker(t, capabilitiesHandler())
	defer done()

	info, err := w.GetResource(context.Background(), "Vanished", nil)
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestGetResourceUnreachable(t *testing.T) {
	w, done := testWorker(t, testutil.WCSHandler{Status: http.StatusServiceUnavailable})
	defer done()

	_, err := w.GetResource(context.Background(), "AverageTemperature", nil)
	assert.Error(t, err)
}

func TestResolveCategory(t *testing.T) {
	w, done := testWorker(t, capabilitiesHandler())
	defer done()

	t.Run("exact match", func(t *testing.T) {
		w.categories = vocabulary{"Hydrology": true}
		assert.Equal(t, "Hydrology", w.resolveCategory(context.Background(), []string{"Hydrology", "OtherTag"}))
	})

	t.Run("matching is case-sensitive", func(t *testing.T) {
		w.categories = vocabulary{"Hydrology": true}
		assert.Empty(t, w.resolveCategory(context.Background(), []string{"hydrology"}))
	})

	t.Run("first matching keyword wins", func(t *testing.T) {
		w.categories = vocabulary{"Hydrology": true, "Climate": true}
		assert.Equal(t, "Climate", w.resolveCategory(context.Background(), []string{"Climate", "Hydrology"}))
	})

	t.Run("lookup failure degrades to no category", func(t *testing.T) {
		w.categories = failingVocabulary{}
		assert.Empty(t, w.resolveCategory(context.Background(), []string{"Hydrology"}))
	})

	t.Run("no vocabulary wired", func(t *testing.T) {
		w.categories = nil
		assert.Empty(t, w.resolveCategory(context.Background(), []string{"Hydrology"}))
	})
}
