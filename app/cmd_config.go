package app

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var configDest string

func NewCmdConfig(out io.Writer, config *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doConfig(out, config)
		},
	}

	cmd.Flags().StringVarP(&configDest, "write", "w", "", "Write the default configuration to the given path instead of printing")

	return cmd
}

func doConfig(out io.Writer, config *Config) error {
	if configDest != "" {
		err := afero.WriteFile(appFs, configDest, []byte(defaultConfig), 0o644)
		return errors.Wrap(err, "writing default configuration")
	}
	fmt.Fprintln(out, "\n################################################################# Configuration")
	_, err := fmt.Fprintf(out, "%s", config)
	return err
}
