package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/harvester"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/internal/testutil"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type storemock struct {
	mock.Mock
}

var _ store.Store = (*storemock)(nil)

func (m *storemock) CreateServiceWithHarvester(ctx context.Context, s *store.Service, h *store.Harvester) error {
	args := m.Called(ctx, s, h)
	return args.Error(0)
}

func (m *storemock) GetService(ctx context.Context, id int64) (*store.Service, error) {
	args := m.Called(ctx, id)
	svc, _ := args.Get(0).(*store.Service)
	return svc, args.Error(1)
}

func (m *storemock) ListServices(ctx context.Context) ([]*store.Service, error) {
	args := m.Called(ctx)
	services, _ := args.Get(0).([]*store.Service)
	return services, args.Error(1)
}

func (m *storemock) GetHarvester(ctx context.Context, id int64) (*store.Harvester, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(*store.Harvester)
	return h, args.Error(1)
}

func (m *storemock) UpsertHarvestableResources(ctx context.Context, harvesterID int64, resources []store.HarvestableResource) error {
	args := m.Called(ctx, harvesterID, resources)
	return args.Error(0)
}

func (m *storemock) TopicCategoryExists(ctx context.Context, identifier string) (bool, error) {
	args := m.Called(ctx, identifier)
	return args.Bool(0), args.Error(1)
}

func wcsServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe(t *testing.T) {
	t.Run("endpoint with coverages", func(t *testing.T) {
		srv := wcsServer(t, testutil.WCSHandler{
			CapabilitiesXML: testutil.Capabilities("t", "a", testutil.CoverageFixture{ID: "c"}),
		})
		h := NewHandler(logrus.StandardLogger(), nil, srv.URL)
		assert.True(t, h.Probe(context.Background()))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		srv := wcsServer(t, testutil.WCSHandler{Status: http.StatusBadGateway})
		h := NewHandler(logrus.StandardLogger(), nil, srv.URL)
		assert.False(t, h.Probe(context.Background()))
	})
}

func TestGetKeywords(t *testing.T) {
	srv := wcsServer(t, testutil.WCSHandler{
		CapabilitiesXML: testutil.Capabilities("t", "a", testutil.CoverageFixture{ID: "c"}),
	})
	h := NewHandler(logrus.StandardLogger(), nil, srv.URL)
	keywords, err := h.GetKeywords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rasdaman", "coverages"}, keywords)
}

func TestRegister(t *testing.T) {
	srv := wcsServer(t, testutil.WCSHandler{
		CapabilitiesXML: testutil.Capabilities("Test WCS", "A test endpoint", testutil.CoverageFixture{ID: "c", Title: "Coverage"}),
	})

	m := &storemock{}
	upserted := make(chan []store.HarvestableResource, 1)
	m.On("CreateServiceWithHarvester", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*store.Service).ID = 3
			args.Get(2).(*store.Harvester).ID = 7
		}).Return(nil)
	m.On("UpsertHarvestableResources", mock.Anything, int64(7), mock.Anything).
		Run(func(args mock.Arguments) {
			upserted <- args.Get(2).([]store.HarvestableResource)
		}).Return(nil)
	m.On("TopicCategoryExists", mock.Anything, mock.Anything).Return(false, nil).Maybe()

	h := NewHandler(logrus.StandardLogger(), m, srv.URL)
	svc, err := h.Register(context.Background(), "admin")
	require.NoError(t, err)
	require.NotNil(t, svc)

	assert.Equal(t, "WCS", svc.Type)
	assert.Equal(t, "indexed", svc.Method)
	assert.Equal(t, "admin", svc.Owner)
	assert.True(t, svc.MetadataOnly)
	assert.Equal(t, "2.0.1", svc.Version)
	assert.Equal(t, "Test WCS", svc.Title)
	assert.Equal(t, "A test endpoint", svc.Abstract)
	assert.NotEmpty(t, svc.Name)
	_, err = uuid.Parse(svc.UUID)
	assert.NoError(t, err)

	select {
	case resources := <-upserted:
		require.Len(t, resources, 1)
		assert.Equal(t, "c", resources[0].UniqueIdentifier)
		assert.Equal(t, "Coverage", resources[0].Title)
		assert.Equal(t, int64(7), resources[0].HarvesterID)
	case <-time.After(5 * time.Second):
		t.Fatal("initial resource update never ran")
	}

	m.AssertExpectations(t)
}

func TestRegisterDefaultsFromSlug(t *testing.T) {
	srv := wcsServer(t, testutil.WCSHandler{
		CapabilitiesXML: testutil.Capabilities("", "", testutil.CoverageFixture{ID: "c"}),
	})

	m := &storemock{}
	m.On("CreateServiceWithHarvester", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.On("UpsertHarvestableResources", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	h := NewHandler(logrus.StandardLogger(), m, srv.URL)
	svc, err := h.Register(context.Background(), "admin")
	require.NoError(t, err)

	// Title falls back to the slugified URL, abstract to the placeholder.
	assert.Equal(t, svc.Name, svc.Title)
	assert.Equal(t, "Not provided", svc.Abstract)
}

func TestRegisterUnreachableEndpointStillCompletes(t *testing.T) {
	// The capabilities read succeeds but the endpoint advertises no
	// coverages, so the availability check fails and no initial resource
	// update runs.
	srv := wcsServer(t, testutil.WCSHandler{
		CapabilitiesXML: testutil.Capabilities("Empty", "No coverages"),
	})

	m := &storemock{}
	m.On("CreateServiceWithHarvester", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	h := NewHandler(logrus.StandardLogger(), m, srv.URL)
	svc, err := h.Register(context.Background(), "admin")
	require.NoError(t, err)
	require.NotNil(t, svc)

	m.AssertNotCalled(t, "UpsertHarvestableResources", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterUnreachable(t *testing.T) {
	srv := wcsServer(t, testutil.WCSHandler{Status: http.StatusBadGateway})

	h := NewHandler(logrus.StandardLogger(), &storemock{}, srv.URL)
	_, err := h.Register(context.Background(), "admin")
	assert.Error(t, err)
}

func TestHarvesterTypeTag(t *testing.T) {
	srv := wcsServer(t, testutil.WCSHandler{
		CapabilitiesXML: testutil.Capabilities("t", "a", testutil.CoverageFixture{ID: "c"}),
	})

	m := &storemock{}
	var record *store.Harvester
	m.On("CreateServiceWithHarvester", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			record = args.Get(2).(*store.Harvester)
		}).Return(nil)
	m.On("UpsertHarvestableResources", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	h := NewHandler(logrus.StandardLogger(), m, srv.URL)
	_, err := h.Register(context.Background(), "admin")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, harvester.Type, record.HarvesterType)
	assert.False(t, record.SchedulingEnabled)
	assert.True(t, record.DeleteOrphanResources)
	assert.Equal(t, "admin", record.DefaultOwner)
}
