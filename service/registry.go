package service

import (
	"context"
	"sync"
	"time"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/store"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/wcs"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var reloadFrequency = 5 * time.Minute

// Registry keeps a WCS client per registered service, reloaded
// periodically from the store so externally registered services become
// visible without a restart.
type Registry struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   logrus.FieldLogger
	store    store.Store
	timeout  time.Duration
	reloadCh chan struct{}
	stopCh   chan chan struct{}
	r        map[int64]*wcs.Client
	sync.RWMutex
}

// NewRegistry returns a usable registry.
func NewRegistry(logger logrus.FieldLogger, st store.Store, timeout time.Duration) (*Registry, error) {
	r := &Registry{
		logger:   logger,
		store:    st,
		timeout:  timeout,
		reloadCh: make(chan struct{}),
		stopCh:   make(chan chan struct{}),
		r:        make(map[int64]*wcs.Client),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	if err := r.load(); err != nil {
		return nil, errors.Wrap(err, "registry failed to load from store")
	}
	go r.loop()
	return r, nil
}

// load reads the service records into the local registry data structure
// with initialized clients. Constructing a client performs no network I/O.
func (r *Registry) load() error {
	services, err := r.store.ListServices(r.ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list services")
	}
	if len(services) < 1 {
		r.logger.Warn("Registry has been loaded but it is empty")
		return nil
	}
	newMap := make(map[int64]*wcs.Client)
	for _, svc := range services {
		c, err := wcs.New(nil, svc.BaseURL, wcs.SetTimeout(r.timeout), wcs.SetLogger(r.logger))
		if err != nil {
			return errors.Wrapf(err, "failed to create client for service %d", svc.ID)
		}
		newMap[svc.ID] = c
	}
	r.Lock()
	r.r = newMap
	r.Unlock()
	return nil
}

func (r *Registry) loop() {
	ticker := time.NewTicker(reloadFrequency)
	defer ticker.Stop()
	for {
		select {
		case ch := <-r.stopCh:
			r.cancel()
			close(ch)
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
		case <-r.reloadCh:
		}
		_ = r.load()
	}
}

// Get a client for a given service.
func (r *Registry) Get(serviceID int64) *wcs.Client {
	r.RLock()
	defer r.RUnlock()
	return r.r[serviceID]
}

func (r *Registry) Log() {
	r.RLock()
	defer r.RUnlock()
	for serviceID, client := range r.r {
		r.logger.WithFields(logrus.Fields{
			"service": serviceID,
			"url":     client.URL(),
		}).Warn("Registry entry found")
	}
}

// Reload is a non-blocking request to reload the registry. The operation
// is omitted if it is already happening.
func (r *Registry) Reload() {
	select {
	case r.reloadCh <- struct{}{}:
		r.logger.Warn("Reloading registry")
	default:
		r.logger.Warn("The registry is currently reloading the entries")
	}
}

func (r *Registry) Stop() {
	ch := make(chan struct{})
	r.stopCh <- ch
	<-ch
}
