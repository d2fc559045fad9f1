package cmd

import (
	"fmt"
	"os"

	"github.com/siphondl/siphon/internal/scheduler"
	"github.com/siphondl/siphon/internal/utils"
	"github.com/spf13/cobra"
)

func newS3Cmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "s3 [BUCKET/KEY or s3://BUCKET/KEY]",
		Short: "Download files or folders from AWS S3",
		Long: `Download files or folders from AWS S3.

Examples:
  siphon s3 mybucket/path/to/file.zip
  siphon s3 s3://mybucket/path/to/folder/
  siphon s3 mybucket/file.zip --profile myprofile`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			job := utils.Job{
				JobType:          "s3",
				URL:              args[0],
				OutputPath:       outputPath,
				Connections:      connections,
				Resume:           resume,
				SpeedLimit:       speedLimitBytes,
				HTTPClientConfig: globalHTTPConfig,
				Metadata:         make(map[string]any),
			}
			job.Metadata["profile"] = profile
			if err := scheduler.Run([]utils.Job{job}, workers, fileLog); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile to use (defaults to AWS_PROFILE or 'default')")
	return cmd
}
