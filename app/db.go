package app

import (
	"time"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/store"

	"github.com/cenkalti/backoff/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// openStore connects to the platform database, retrying with exponential
// backoff so the process survives a database that is still starting up.
func openStore(logger logrus.FieldLogger, config *Config) (*store.Postgres, error) {
	var st *store.Postgres
	op := func() error {
		var err error
		st, err = store.NewPostgres(config.Database.DSN, logger)
		if err != nil {
			logger.Warnf("Database not ready: %v", err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute
	if err := backoff.Retry(op, policy); err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	return st, nil
}
