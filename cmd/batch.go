package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/siphondl/siphon/internal/scheduler"
	"github.com/siphondl/siphon/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type batchFile map[string][]utils.DownloadEntry

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Process multiple downloads from a YAML file",
		Long: `Process multiple downloads from a YAML file. Entries are grouped by
job type, each with a link and an optional output path:

  http:
    - link: https://example.com/file1.zip
      op: file1.zip
    - link: https://example.com/file2.zip
  s3:
    - link: s3://mybucket/path/to/file.tar.gz`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading YAML file: %v\n", err)
				os.Exit(1)
			}
			var batch batchFile
			if err := yaml.Unmarshal(data, &batch); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing YAML file: %v\n", err)
				os.Exit(1)
			}
			jobs := buildJobsFromBatch(batch)
			if len(jobs) == 0 {
				fmt.Fprintln(os.Stderr, "No valid jobs found in the batch file")
				os.Exit(1)
			}
			if err := scheduler.Run(jobs, workers, fileLog); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
	return cmd
}

func buildJobsFromBatch(batch batchFile) []utils.Job {
	var jobs []utils.Job
	for jobType, entries := range batch {
		normalizedType := normalizeJobType(jobType)
		if normalizedType == "" {
			fmt.Fprintf(os.Stderr, "Warning: Unknown job type '%s', skipping...\n", jobType)
			continue
		}
		for _, entry := range entries {
			if entry.URL == "" {
				fmt.Fprintf(os.Stderr, "Warning: Empty link found in %s section, skipping...\n", jobType)
				continue
			}
			job := utils.Job{
				JobType:          normalizedType,
				URL:              entry.URL,
				OutputPath:       entry.OutputPath,
				Connections:      connections,
				Resume:           resume,
				SpeedLimit:       speedLimitBytes,
				HTTPClientConfig: globalHTTPConfig,
				Metadata:         make(map[string]any),
			}
			if normalizedType == "s3" {
				job.Metadata["profile"] = ""
			}
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func normalizeJobType(jobType string) string {
	switch strings.ToLower(jobType) {
	case "http", "https":
		return "http"
	case "s3":
		return "s3"
	}
	return ""
}
