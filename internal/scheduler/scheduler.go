package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanq16/bingo/internal/downloader"
	"github.com/tanq16/bingo/internal/ytdlp"
)

// Downloader runs a single request; *downloader.Service satisfies it.
type Downloader interface {
	Download(ctx context.Context, req downloader.Request) *ytdlp.Result
}

// Progress receives job lifecycle events; *output.Manager satisfies it.
type Progress interface {
	Register(url string) int
	SetMessage(id int, message string)
	AddStreamLine(id int, line string)
	Complete(id int, message string)
	ReportError(id int, err error)
}

type Job struct {
	ID      string
	Request downloader.Request
}

// NewJob tags a request with a fresh job id.
func NewJob(req downloader.Request) Job {
	return Job{ID: uuid.NewString(), Request: req}
}

type Outcome struct {
	Job    Job
	Result *ytdlp.Result
}

// Run executes jobs on numWorkers goroutines and returns the outcomes in job
// order. Jobs still queued when ctx is cancelled fail as cancelled.
func Run(ctx context.Context, svc Downloader, progress Progress, jobs []Job, numWorkers int) []Outcome {
	numWorkers = max(1, min(numWorkers, len(jobs)))
	outcomes := make([]Outcome, len(jobs))

	jobCh := make(chan int, len(jobs))
	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobCh {
				outcomes[i] = processJob(ctx, svc, progress, jobs[i], workerID)
			}
		}(w)
	}
	wg.Wait()
	return outcomes
}

func processJob(ctx context.Context, svc Downloader, progress Progress, job Job, workerID int) Outcome {
	req := job.Request
	id := progress.Register(req.URL)
	logger := log.With().Str("job_id", job.ID).Int("worker", workerID).Logger()

	if err := ctx.Err(); err != nil {
		res := &ytdlp.Result{Error: "batch cancelled", ErrorKind: ytdlp.KindCancelled}
		progress.ReportError(id, err)
		return Outcome{Job: job, Result: res}
	}

	progress.SetMessage(id, fmt.Sprintf("Downloading %s (%s)", req.URL, req.Mode))
	logger.Debug().Str("op", "scheduler/job").Msgf("Starting %s", req.URL)
	jobCtx := ytdlp.WithStream(ctx, func(_, line string) {
		progress.AddStreamLine(id, line)
	})
	res := svc.Download(jobCtx, req)
	if !res.Success {
		progress.ReportError(id, errors.New(res.Error))
		return Outcome{Job: job, Result: res}
	}
	msg := "Completed " + req.URL
	if res.FilePath != "" {
		msg = fmt.Sprintf("Completed %s", res.FilePath)
	}
	progress.Complete(id, msg)
	return Outcome{Job: job, Result: res}
}
