package objectstore

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/pkg/metadata"
	"github.com/marmos91/fstore/pkg/metrics"
	"github.com/marmos91/fstore/pkg/progress"
)

// runWorker implements C10: it streams objects from meta, applies act to
// each with parallelism bounded by a semaphore sized to GOMAXPROCS, and
// joins on a sync.WaitGroup — the Go rendition of spec.md §9's "broadcast
// receiver, drop-all-as-join" idiom, explicitly sanctioned there as an
// equivalent pattern. Runs detached from the caller's goroutine; guard is
// released (finishing the Progress and clearing the Task slot) no matter
// how the stream ends.
func runWorker(ctx context.Context, meta metadata.MetadataStore, guard *progress.Guard, p *progress.Progress, before time.Time, act action, taskName string) {
	defer func() {
		metrics.ObserveTaskFinished(taskName, p.Elapsed().Seconds(), p.Completed(), p.Errors())
	}()
	defer guard.Release()

	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	var wg sync.WaitGroup

	objc, errc := meta.StreamObjects(ctx, before)
	for obj := range objc {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(obj metadata.Object) {
			defer wg.Done()
			defer sem.Release(1)

			msg := act.run(ctx, obj)

			var batch []metadata.ObjectError
			if msg == "" {
				batch = p.ClearError(obj.ID)
			} else {
				batch = p.RecordError(obj.ID, msg)
			}
			p.Increment()

			if len(batch) > 0 {
				if err := meta.UpdateObjectErrors(ctx, batch); err != nil {
					logger.Error("failed to flush object errors", "error", err)
				}
			}
		}(obj)
	}

	if err := <-errc; err != nil {
		logger.Error("object stream ended with error", "error", err)
	}

	wg.Wait()

	if remaining := p.Drain(); len(remaining) > 0 {
		if err := meta.UpdateObjectErrors(ctx, remaining); err != nil {
			logger.Error("failed to flush remaining object errors", "error", err)
		}
	}
}
