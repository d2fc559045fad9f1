package cmd

import (
	"fmt"
	"os"

	"github.com/siphondl/siphon/internal/scheduler"
	"github.com/siphondl/siphon/internal/utils"
	"github.com/spf13/cobra"
)

func newHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http [URL]",
		Short: "Download file via HTTP/HTTPS",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			job := utils.Job{
				JobType:          "http",
				URL:              args[0],
				OutputPath:       outputPath,
				Connections:      connections,
				Resume:           resume,
				SpeedLimit:       speedLimitBytes,
				HTTPClientConfig: globalHTTPConfig,
				Metadata:         make(map[string]any),
			}
			if err := scheduler.Run([]utils.Job{job}, workers, fileLog); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
	return cmd
}
