package app

import (
	"context"
	"fmt"
	"io"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/harvester"
	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/service"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	harvestID  int64
	harvestURL string
)

func NewCmdHarvest(out io.Writer, logger logrus.FieldLogger, config *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Refresh the resource inventory of a harvester, or list the coverages of an endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doHarvest(out, logger, config)
		},
	}

	cmd.Flags().Int64Var(&harvestID, "harvester-id", 0, "Identifier of a registered harvester")
	cmd.Flags().StringVarP(&harvestURL, "url", "u", "", "Remote WCS endpoint URL (list only, nothing is stored)")

	return cmd
}

func doHarvest(out io.Writer, logger logrus.FieldLogger, config *Config) error {
	if harvestID > 0 {
		return refreshHarvester(out, logger, config)
	}
	if harvestURL != "" {
		return listCoverages(out, logger, config)
	}
	return errors.New("either harvester-id or url is required")
}

func refreshHarvester(out io.Writer, logger logrus.FieldLogger, config *Config) error {
	st, err := openStore(logger, config)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()

	record, err := st.GetHarvester(ctx, harvestID)
	if err != nil {
		return err
	}
	if record == nil {
		return errors.Errorf("harvester %d not found", harvestID)
	}

	opts := []service.HandlerOption{service.WithTimeout(config.Timeout())}
	if len(record.TypeSpecificConfiguration) > 0 {
		opts = append(opts, service.WithHarvesterConfig(record.TypeSpecificConfiguration))
	}
	h := service.NewHandler(logger, st, record.RemoteURL, opts...)
	if err := h.Refresh(ctx, record.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Resource inventory of harvester %d refreshed.\n", record.ID)
	return nil
}

func listCoverages(out io.Writer, logger logrus.FieldLogger, config *Config) error {
	w, err := harvester.New(logger, harvestURL, harvester.WithTimeout(config.Timeout()))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()

	resources, err := w.ListResources(ctx, 0)
	if err != nil {
		return err
	}
	for _, r := range resources {
		fmt.Fprintf(out, "%s\t%s\n", r.UniqueIdentifier, r.Title)
	}
	return nil
}
