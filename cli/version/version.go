package version

import (
	"os"

	"github.com/bassbreaker/pic24flash/cli/feedback"
	v "github.com/bassbreaker/pic24flash/version"
	"github.com/spf13/cobra"
)

// NewCommand created a new `version` command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Shows version number of pic24flash.",
		Long:    "Shows the version number of pic24flash which is installed on your system.",
		Example: "  " + os.Args[0] + " version",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			feedback.PrintResult(v.VersionInfo)
		},
	}
}
