package service

import (
	"testing"
	"time"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/store"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	m := &storemock{}
	m.On("ListServices", mock.Anything).Return([]*store.Service{
		{ID: 1, BaseURL: "http://one.example.com/wcs"},
		{ID: 2, BaseURL: "http://two.example.com/rasdaman/ows"},
	}, nil)

	r, err := NewRegistry(logrus.StandardLogger(), m, time.Second)
	require.NoError(t, err)
	defer r.Stop()

	c := r.Get(1)
	require.NotNil(t, c)
	assert.Equal(t, "http://one.example.com/wcs", c.URL())

	assert.Nil(t, r.Get(12345))
}

func TestRegistryEmpty(t *testing.T) {
	m := &storemock{}
	m.On("ListServices", mock.Anything).Return([]*store.Service{}, nil)

	r, err := NewRegistry(logrus.StandardLogger(), m, time.Second)
	require.NoError(t, err)
	defer r.Stop()

	assert.Nil(t, r.Get(1))
}

func TestRegistryStoreFailure(t *testing.T) {
	m := &storemock{}
	m.On("ListServices", mock.Anything).Return(nil, errors.New("connection lost"))

	_, err := NewRegistry(logrus.StandardLogger(), m, time.Second)
	assert.Error(t, err)
}

func TestRegistryReload(t *testing.T) {
	m := &storemock{}
	listed := make(chan struct{}, 10)
	m.On("ListServices", mock.Anything).
		Run(func(mock.Arguments) { listed <- struct{}{} }).
		Return([]*store.Service{{ID: 1, BaseURL: "http://one.example.com/wcs"}}, nil)

	r, err := NewRegistry(logrus.StandardLogger(), m, time.Second)
	require.NoError(t, err)
	defer r.Stop()

	<-listed // initial load

	r.Reload()
	select {
	case <-listed:
	case <-time.After(5 * time.Second):
		t.Fatal("reload never hit the store")
	}
}

func TestRegistryStop(t *testing.T) {
	m := &storemock{}
	m.On("ListServices", mock.Anything).Return([]*store.Service{}, nil)

	r, err := NewRegistry(logrus.StandardLogger(), m, time.Second)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("registry did not stop")
	}

	select {
	case <-r.ctx.Done():
	default:
		t.Fatal("context should be cancelled after Stop")
	}
}
