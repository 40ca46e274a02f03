// pkg/extract/worker.go
package extract

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/remeh/sizedwaitgroup"
)

// plannedTask is a task with its destination decided
type plannedTask struct {
	task     ArchiveTask
	dest     string
	collapse bool
}

// plan picks where the entries of task go
func (s *session) plan(task ArchiveTask) plannedTask {
	dir := filepath.Dir(task.Path)
	stem, _ := s.registry.SplitExt(filepath.Base(task.Path))
	if stem == "" {
		stem = filepath.Base(task.Path)
	}

	pt := plannedTask{task: task}
	switch {
	case s.opts.FlattenStructure && s.opts.ExtractFilesOnly:
		pt.dest, pt.collapse = s.root, true
	case s.opts.ExtractFilesOnly:
		pt.dest, pt.collapse = dir, true
	case s.opts.FlattenStructure:
		pt.dest, pt.collapse = filepath.Join(s.root, stem), true
	default:
		pt.dest = filepath.Join(dir, stem)
	}
	return pt
}

// groupTasks buckets tasks whose destinations are nested in one another,
// keyed by the outermost destination among them. Groups keep discovery
// order internally and are returned ordered by their first task.
func groupTasks(planned []plannedTask) [][]plannedTask {
	dests := make(map[string]struct{}, len(planned))
	for _, pt := range planned {
		dests[pt.dest] = struct{}{}
	}

	groups := make(map[string][]plannedTask)
	var order []string
	for _, pt := range planned {
		key := pt.dest
		for dir := pt.dest; ; {
			if _, ok := dests[dir]; ok {
				key = dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], pt)
	}

	out := make([][]plannedTask, 0, len(order))
	for _, key := range order {
		g := groups[key]
		sort.SliceStable(g, func(i, j int) bool { return g[i].task.Index < g[j].task.Index })
		out = append(out, g)
	}
	return out
}

// runRound extracts one round of tasks. Groups run concurrently on at most
// MaxThreads workers; the round returns once every worker has joined.
func (s *session) runRound(ctx context.Context, tasks []ArchiveTask) []ExtractionResult {
	// destinations blocked by a file are redirected before grouping, so
	// tasks that end up sharing a directory share a group
	planned := make([]plannedTask, len(tasks))
	for i, task := range tasks {
		pt := s.plan(task)
		pt.dest = s.alloc.DirFor(pt.dest)
		planned[i] = pt
	}

	results := make([]ExtractionResult, len(tasks))
	var mu sync.Mutex
	store := func(res ExtractionResult) {
		mu.Lock()
		results[res.Task.Index] = res
		mu.Unlock()
	}

	swg := sizedwaitgroup.New(s.opts.MaxThreads)
	for _, group := range groupTasks(planned) {
		swg.Add()
		go func(group []plannedTask) {
			defer swg.Done()
			for _, pt := range group {
				var res ExtractionResult
				if ctx.Err() != nil {
					res = ExtractionResult{Task: pt.task, Outcome: OutcomeSkipped, Reason: ctx.Err()}
				} else {
					res = s.extractArchive(ctx, pt)
				}
				s.stats.Record(res)
				s.emit(ProgressEvent{Type: EventArchiveComplete, Round: pt.task.Round, Path: pt.task.Path, Result: &res})
				store(res)
			}
		}(group)
	}
	swg.Wait()

	return results
}
