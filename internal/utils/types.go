package utils

import "github.com/siphondl/siphon/internal/progress"

type Downloader interface {
	Download(job *Job) error
	BuildJob(job *Job) error
	ValidateJob(job *Job) error
}

// Job is the unit of work the scheduler hands to a downloader. BuildJob fills
// TotalSize and Metadata; the scheduler attaches the Tracker before dispatch.
type Job struct {
	ID               string
	JobType          string
	URL              string
	OutputPath       string
	Connections      int
	Resume           bool
	SpeedLimit       int64 // bytes per second, 0 means unlimited
	TotalSize        int64
	Tracker          *progress.Tracker
	Metadata         map[string]any
	HTTPClientConfig HTTPClientConfig
}

type DownloadConfig struct {
	URL              string
	OutputPath       string
	Connections      int
	Resume           bool
	SpeedLimit       int64
	HTTPClientConfig HTTPClientConfig
}

type DownloadEntry struct {
	OutputPath string `yaml:"op"`
	URL        string `yaml:"link"`
}
