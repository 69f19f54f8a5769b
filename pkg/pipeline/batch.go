package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nadir/pkg/ortho"
	"github.com/matzehuels/nadir/pkg/scene"
)

// BatchResult is the outcome of one job in a batch.
type BatchResult struct {
	Index  int
	Name   string
	Result *Result
	Err    error
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// RunBatch executes jobs with at most workers running at once. A failing
// job does not stop the others; its error is recorded in its result.
// Results are returned in job order. Jobs that share a scene and
// convention share a single scene load.
//
// Cancelling ctx stops jobs that have not started; they report ctx.Err().
func (r *Runner) RunBatch(ctx context.Context, jobs []Options, workers int) ([]BatchResult, BatchSummary) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	start := time.Now()
	results := make([]BatchResult, len(jobs))
	memo := newSceneMemo(r.LoadScene)

	var g errgroup.Group
	g.SetLimit(workers)

	for i, job := range jobs {
		results[i] = BatchResult{Index: i, Name: job.label()}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			res, err := r.execute(ctx, job, memo.load)
			results[i].Result = res
			results[i].Err = err
			if err != nil {
				r.Logger.Error("job failed", "job", results[i].Name, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := BatchSummary{Duration: time.Since(start)}
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	r.hooks().OnBatchComplete(ctx, len(jobs), summary.Failed, summary.Duration)
	return results, summary
}

// sceneMemo loads each (input, convention) pair once per batch.
type sceneMemo struct {
	loader  sceneLoader
	mu      sync.Mutex
	entries map[sceneKey]*sceneEntry
}

type sceneKey struct {
	input string
	conv  ortho.Convention
}

type sceneEntry struct {
	once sync.Once
	mesh *scene.Mesh
	err  error
}

func newSceneMemo(loader sceneLoader) *sceneMemo {
	return &sceneMemo{loader: loader, entries: make(map[sceneKey]*sceneEntry)}
}

func (m *sceneMemo) load(ctx context.Context, input string, conv ortho.Convention) (*scene.Mesh, error) {
	key := sceneKey{input, conv}

	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &sceneEntry{}
		m.entries[key] = e
	}
	m.mu.Unlock()

	e.once.Do(func() {
		e.mesh, e.err = m.loader(ctx, input, conv)
	})
	return e.mesh, e.err
}
