package app

import (
	"context"
	"fmt"
	"io"

	"github.com/GeoNodeUserGroup-DE/contrib-wcs-remote-service/service"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	registerURL   string
	registerOwner string
)

func NewCmdRegister(out io.Writer, logger logrus.FieldLogger, config *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a remote WCS endpoint as a service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRegister(out, logger, config)
		},
	}

	cmd.Flags().StringVarP(&registerURL, "url", "u", "", "Remote WCS endpoint URL")
	cmd.Flags().StringVarP(&registerOwner, "owner", "o", "admin", "Owner of the created service")

	return cmd
}

func doRegister(out io.Writer, logger logrus.FieldLogger, config *Config) error {
	if registerURL == "" {
		return errors.New("url parameter empty")
	}

	st, err := openStore(logger, config)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout())
	defer cancel()

	h := service.NewHandler(logger, st, registerURL, service.WithTimeout(config.Timeout()))
	svc, err := h.Register(ctx, registerOwner)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Service %d registered with harvester %d.\n", svc.ID, svc.HarvesterID)

	// Registration starts the inventory update in the background; run it
	// again in the foreground so the inventory is stored before exiting.
	if err := h.Refresh(ctx, svc.HarvesterID); err != nil {
		logger.Warnf("Resource inventory update failed: %v", err)
	}
	return nil
}
