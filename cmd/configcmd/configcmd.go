// Package configcmd implements `koto config`.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/u-stem/koto/internal/conf"
)

// DefaultPath is where `config init` writes without an argument.
const DefaultPath = "config.yaml"

// Command returns the config command. skipInit is the annotation that tells
// the root command not to load settings first, so a broken config file can
// still be replaced.
func Command(skipInit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write the default configuration",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipInit: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := conf.WriteDefaultConfig(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote default configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
