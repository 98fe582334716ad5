package jobs

import (
	"context"
)

// InitializeJobs starts the background ingestion loop
func InitializeJobs(ctx context.Context, ingestJob *IngestJob) {
	go ingestJob.RunScheduled(ctx)
}
