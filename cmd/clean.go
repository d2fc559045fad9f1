package cmd

import (
	"os"

	"github.com/siphondl/siphon/internal/output"
	"github.com/siphondl/siphon/internal/utils"
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [OUTPUT_PATH]",
		Short: "Clean up temporary part files",
		Long: `Clean up temporary part files. With an output path, removes only the
part files belonging to that download; without one, removes the whole
temporary directory next to the current directory.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var err error
			if len(args) == 0 {
				err = utils.CleanLocal(".")
			} else {
				err = utils.Clean(args[0])
			}
			if err != nil {
				output.PrintError("Error cleaning up temporary files")
				os.Exit(1)
			}
			output.PrintSuccess("Temporary files cleaned up")
		},
	}
}
