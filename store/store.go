// Package store persists the registration artifacts owned by the host
// platform: service records, their paired harvester records, and the brief
// harvestable resource inventory refreshed by harvesting runs.
package store

import (
	"context"
	"time"
)

// Service is a registered remote service.
type Service struct {
	ID           int64
	UUID         string
	BaseURL      string
	Type         string
	Method       string
	Owner        string
	MetadataOnly bool
	Version      string
	Name         string
	Title        string
	Abstract     string
	HarvesterID  int64
	CreatedAt    time.Time
}

// Harvester is the scheduling record paired with a registered service.
// It is created once at registration time; the host's scheduling subsystem
// mutates it afterwards.
type Harvester struct {
	ID                int64
	Name              string
	DefaultOwner      string
	SchedulingEnabled bool
	RemoteURL         string

	// DeleteOrphanResources removes managed resources that vanished
	// upstream on the next harvesting run.
	DeleteOrphanResources bool

	HarvesterType string

	// TypeSpecificConfiguration is the free-form configuration validated
	// against the harvester type's declared schema.
	TypeSpecificConfiguration map[string]interface{}

	CreatedAt time.Time
}

// HarvestableResource is one remote resource known to a harvester.
type HarvestableResource struct {
	ID                 int64
	HarvesterID        int64
	UniqueIdentifier   string
	Title              string
	Abstract           string
	RemoteResourceType string
	LastRefreshed      time.Time
}

// Store is the persistence boundary consumed by the service handler and
// the admin API.
type Store interface {
	// CreateServiceWithHarvester persists both records in one transaction
	// and links the service to its harvester. IDs are filled in on success.
	CreateServiceWithHarvester(ctx context.Context, service *Service, harvester *Harvester) error

	GetService(ctx context.Context, id int64) (*Service, error)
	ListServices(ctx context.Context) ([]*Service, error)
	GetHarvester(ctx context.Context, id int64) (*Harvester, error)

	// UpsertHarvestableResources refreshes the resource inventory of one
	// harvester, keyed by unique identifier.
	UpsertHarvestableResources(ctx context.Context, harvesterID int64, resources []HarvestableResource) error

	// TopicCategoryExists reports whether identifier is part of the topic
	// category vocabulary. Satisfies harvester.TopicCategories.
	TopicCategoryExists(ctx context.Context, identifier string) (bool, error)
}
