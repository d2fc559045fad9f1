package s3

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/siphondl/siphon/internal/progress"
	"github.com/siphondl/siphon/internal/utils"
)

func (d *S3Downloader) Download(job *utils.Job) error {
	log := utils.GetLogger("s3")
	bucket := job.Metadata["bucket"].(string)
	key := job.Metadata["key"].(string)
	fileType := job.Metadata["fileType"].(string)
	profile, _ := job.Metadata["profile"].(string)
	client, err := getS3Client(profile)
	if err != nil {
		return fmt.Errorf("error creating S3 client: %v", err)
	}
	if job.Tracker == nil {
		job.Tracker = progress.NewTracker()
	}
	if fileType == "folder" {
		log.Debug().Msgf("Starting folder download for s3://%s/%s", bucket, key)
		return d.downloadFolder(job, bucket, key, client)
	}
	log.Debug().Msgf("Starting file download for s3://%s/%s", bucket, key)
	return downloadObject(bucket, key, job.OutputPath, client, job.Tracker)
}

func (d *S3Downloader) downloadFolder(job *utils.Job, bucket, prefix string, client *s3.Client) error {
	log := utils.GetLogger("s3")
	objects, err := listS3Objects(bucket, prefix, client)
	if err != nil {
		return fmt.Errorf("error listing objects: %v", err)
	}
	if len(objects) == 0 {
		return fmt.Errorf("no objects found in s3://%s/%s", bucket, prefix)
	}
	log.Debug().Msgf("Found %d objects to download in folder", len(objects))

	jobCh := make(chan s3Object, len(objects))
	for _, obj := range objects {
		jobCh <- obj
	}
	close(jobCh)
	numWorkers := min(job.Connections, len(objects))
	log.Debug().Msgf("Using %d parallel workers for folder download", numWorkers)

	// All object downloads report into the one session tracker; its error
	// slot keeps the first fault and lets the other workers drain.
	tracker := job.Tracker
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for obj := range jobCh {
				relPath := strings.TrimPrefix(obj.Key, prefix)
				relPath = strings.TrimPrefix(relPath, "/")
				outputPath := filepath.Join(job.OutputPath, relPath)
				if err := createDirectory(filepath.Dir(outputPath)); err != nil {
					tracker.Fail(fmt.Errorf("error creating directory: %v", err))
					return
				}
				if err := downloadObject(bucket, obj.Key, outputPath, client, tracker); err != nil {
					tracker.Fail(fmt.Errorf("error downloading %s: %v", obj.Key, err))
					return
				}
			}
		}()
	}
	wg.Wait()
	return tracker.Err()
}
