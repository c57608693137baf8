package app

import (
	"context"
	"fmt"
	"io"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/harvester"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var probeURL string

func NewCmdProbe(out io.Writer, logger logrus.FieldLogger, config *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check whether a remote WCS endpoint is harvestable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doProbe(out, logger, config)
		},
	}

	cmd.Flags().StringVarP(&probeURL, "url", "u", "", "Remote WCS endpoint URL")

	return cmd
}

func doProbe(out io.Writer, logger logrus.FieldLogger, config *Config) error {
	if probeURL == "" {
		return errors.New("url parameter empty")
	}

	w, err := harvester.New(logger, probeURL, harvester.WithTimeout(config.Timeout()))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()

	if !w.CheckAvailability(ctx) {
		return errors.New("endpoint is not available")
	}
	total, err := w.CountAvailable(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Endpoint is available with %d coverages.\n", total)
	return nil
}
