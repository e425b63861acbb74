package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	initcfgPath  string
	initcfgForce bool
)

var initcfgCmd = &cobra.Command{
	Use:   "config-init",
	Short: "Write a config file populated with the current defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !initcfgForce {
			if _, err := os.Stat(initcfgPath); err == nil {
				return fmt.Errorf("%s already exists, use --force to overwrite", initcfgPath)
			}
		}

		// cfg already carries the defaults merged with any existing
		// config file and environment.
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "config-init: marshal")
		}

		if err := os.WriteFile(initcfgPath, out, 0o644); err != nil {
			return eris.Wrap(err, "config-init: write")
		}

		fmt.Fprintf(os.Stderr, "Wrote %s\n", initcfgPath)
		return nil
	},
}

func init() {
	initcfgCmd.Flags().StringVar(&initcfgPath, "out", "config.yaml", "path to write")
	initcfgCmd.Flags().BoolVar(&initcfgForce, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(initcfgCmd)
}
