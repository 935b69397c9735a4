// Command cancelcast trains the hotel-booking cancellation model and serves
// predictions over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/staysense/cancelcast/internal/config"
	"github.com/staysense/cancelcast/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cancelcast",
		Short:         "Hotel reservation cancellation prediction pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		log.Setup(cfg.Logging.Level)
		return cfg, nil
	}

	root.AddCommand(newTrainCmd(loadConfig))
	root.AddCommand(newServeCmd(loadConfig))
	return root
}
