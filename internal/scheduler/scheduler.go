package scheduler

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	siphonhttp "github.com/siphondl/siphon/internal/downloaders/http"
	"github.com/siphondl/siphon/internal/downloaders/s3"
	"github.com/siphondl/siphon/internal/output"
	"github.com/siphondl/siphon/internal/progress"
	"github.com/siphondl/siphon/internal/utils"
)

var downloaderRegistry = map[string]utils.Downloader{
	"http": &siphonhttp.HTTPDownloader{},
	"s3":   &s3.S3Downloader{},
}

// Run drives a batch of jobs through a fixed-size worker pool. Each job
// passes through validate, build and download stages against its registered
// downloader, with live progress rendered by the output manager.
func Run(jobs []utils.Job, numWorkers int, logToFile bool) error {
	log := utils.GetLogger("scheduler")
	if logToFile {
		logFile, err := os.OpenFile(utils.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("error opening log file: %v", err)
		}
		defer logFile.Close()
		utils.SetLogOutput(logFile)
	}

	outputMgr := output.NewManager()
	outputMgr.StartDisplay()

	pool, err := ants.NewPool(numWorkers)
	if err != nil {
		outputMgr.StopDisplay()
		return fmt.Errorf("error creating worker pool: %v", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0

	for i := range jobs {
		job := jobs[i]
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := processJob(&job, outputMgr); err != nil {
				log.Debug().Err(err).Str("url", job.URL).Msg("Job failed")
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			mu.Lock()
			failures++
			mu.Unlock()
			log.Error().Err(err).Str("url", job.URL).Msg("Failed to submit job")
		}
	}

	wg.Wait()
	outputMgr.StopDisplay()

	if failures > 0 {
		return fmt.Errorf("%d of %d jobs failed", failures, len(jobs))
	}
	return nil
}

func processJob(job *utils.Job, outputMgr *output.Manager) error {
	job.ID = uuid.NewString()[:8]
	job.Tracker = progress.NewTracker()

	displayName := job.OutputPath
	if displayName == "" {
		displayName = job.URL
	}
	id := outputMgr.Register(displayName)

	downloader, exists := downloaderRegistry[job.JobType]
	if !exists {
		err := fmt.Errorf("unknown job type: %s", job.JobType)
		outputMgr.Fail(id, err)
		return err
	}

	outputMgr.SetStatus(id, fmt.Sprintf("validating %s job", job.JobType))
	if err := downloader.ValidateJob(job); err != nil {
		outputMgr.Fail(id, err)
		return err
	}

	outputMgr.SetStatus(id, "resolving file info")
	if err := downloader.BuildJob(job); err != nil {
		outputMgr.Fail(id, err)
		return err
	}
	outputMgr.SetName(id, job.OutputPath)
	outputMgr.Track(id, job.TotalSize, job.Tracker)

	if err := downloader.Download(job); err != nil {
		outputMgr.Fail(id, err)
		return err
	}
	outputMgr.Complete(id)
	return nil
}
