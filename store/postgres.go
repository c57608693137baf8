package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

// Postgres is the lib/pq backed Store implementation.
type Postgres struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

var _ Store = (*Postgres)(nil)

// NewPostgres opens a connection pool and verifies connectivity with a
// ping.
func NewPostgres(dsn string, logger logrus.FieldLogger) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "pinging database")
	}
	return &Postgres{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) CreateServiceWithHarvester(ctx context.Context, service *Service, harvester *Harvester) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	config, err := json.Marshal(harvester.TypeSpecificConfiguration)
	if err != nil {
		return errors.Wrap(err, "marshaling harvester configuration")
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO harvesters (
			name, default_owner, scheduling_enabled, remote_url,
			delete_orphan_resources, harvester_type, type_specific_configuration
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		harvester.Name, harvester.DefaultOwner, harvester.SchedulingEnabled,
		harvester.RemoteURL, harvester.DeleteOrphanResources,
		harvester.HarvesterType, config,
	).Scan(&harvester.ID, &harvester.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "inserting harvester record")
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO services (
			uuid, base_url, type, method, owner, metadata_only,
			version, name, title, abstract, harvester_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		service.UUID, service.BaseURL, service.Type, service.Method,
		service.Owner, service.MetadataOnly, service.Version,
		service.Name, service.Title, service.Abstract, harvester.ID,
	).Scan(&service.ID, &service.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "inserting service record")
	}
	service.HarvesterID = harvester.ID

	return errors.Wrap(tx.Commit(), "committing registration")
}

func (p *Postgres) GetService(ctx context.Context, id int64) (*Service, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, uuid, base_url, type, method, owner, metadata_only,
		       version, name, title, abstract, harvester_id, created_at
		FROM services WHERE id = $1`, id)

	s := &Service{}
	err := row.Scan(
		&s.ID, &s.UUID, &s.BaseURL, &s.Type, &s.Method, &s.Owner,
		&s.MetadataOnly, &s.Version, &s.Name, &s.Title, &s.Abstract,
		&s.HarvesterID, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading service record")
	}
	return s, nil
}

func (p *Postgres) ListServices(ctx context.Context) ([]*Service, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, uuid, base_url, type, method, owner, metadata_only,
		       version, name, title, abstract, harvester_id, created_at
		FROM services ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing service records")
	}
	defer rows.Close()

	var services []*Service
	for rows.Next() {
		s := &Service{}
		err := rows.Scan(
			&s.ID, &s.UUID, &s.BaseURL, &s.Type, &s.Method, &s.Owner,
			&s.MetadataOnly, &s.Version, &s.Name, &s.Title, &s.Abstract,
			&s.HarvesterID, &s.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning service record")
		}
		services = append(services, s)
	}
	return services, errors.Wrap(rows.Err(), "iterating service records")
}

func (p *Postgres) GetHarvester(ctx context.Context, id int64) (*Harvester, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, default_owner, scheduling_enabled, remote_url,
		       delete_orphan_resources, harvester_type,
		       type_specific_configuration, created_at
		FROM harvesters WHERE id = $1`, id)

	h := &Harvester{}
	var config []byte
	err := row.Scan(
		&h.ID, &h.Name, &h.DefaultOwner, &h.SchedulingEnabled, &h.RemoteURL,
		&h.DeleteOrphanResources, &h.HarvesterType, &config, &h.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading harvester record")
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &h.TypeSpecificConfiguration); err != nil {
			return nil, errors.Wrap(err, "unmarshaling harvester configuration")
		}
	}
	return h, nil
}

func (p *Postgres) UpsertHarvestableResources(ctx context.Context, harvesterID int64, resources []HarvestableResource) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	for _, r := range resources {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO harvestable_resources (
				harvester_id, unique_identifier, title, abstract,
				remote_resource_type, last_refreshed
			) VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (harvester_id, unique_identifier) DO UPDATE SET
				title = EXCLUDED.title,
				abstract = EXCLUDED.abstract,
				remote_resource_type = EXCLUDED.remote_resource_type,
				last_refreshed = now()`,
			harvesterID, r.UniqueIdentifier, r.Title, r.Abstract, r.RemoteResourceType,
		)
		if err != nil {
			return errors.Wrapf(err, "upserting harvestable resource %q", r.UniqueIdentifier)
		}
	}

	return errors.Wrap(tx.Commit(), "committing resource inventory")
}

func (p *Postgres) TopicCategoryExists(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM topic_categories WHERE identifier = $1)`,
		identifier,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "looking up topic category")
	}
	return exists, nil
}
