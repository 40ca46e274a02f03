package extract

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creativeyann17/go-unnest/internal/format"
)

func TestStatsCollector_SnapshotOrderAndFreeze(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newStatsCollector(func() time.Time { return clock })

	tasks := []ArchiveTask{
		{Path: "/r/b.zip", Format: format.TagZIP, Size: 20, Round: 2, Index: 0},
		{Path: "/r/a.zip", Format: format.TagZIP, Size: 10, Round: 1, Index: 1},
		{Path: "/r/c.tgz", Format: format.TagTarGz, Size: 30, Round: 1, Index: 0},
	}

	var wg sync.WaitGroup
	for i, task := range tasks {
		s.Discovered(task)
		wg.Add(1)
		go func(i int, task ArchiveTask) {
			defer wg.Done()
			res := ExtractionResult{Task: task, Outcome: OutcomeSuccess, Produced: []string{"f"}, BytesWritten: 5}
			if i == 2 {
				res = ExtractionResult{Task: task, Outcome: OutcomeFailed, Reason: errors.New("corrupt")}
			}
			s.Record(res)
		}(i, task)
	}
	wg.Wait()
	s.Freed(10)
	s.Round(2)
	s.DecodeFallback()

	clock = clock.Add(3 * time.Second)
	s.Freeze()

	// ignored after Freeze
	s.Freed(99)
	s.Warn("late")
	s.Record(ExtractionResult{Task: tasks[0], Outcome: OutcomeSuccess})

	snap := s.Snapshot()
	if snap.ArchivesFound != 3 || snap.ArchiveBytes != 60 {
		t.Errorf("found=%d bytes=%d", snap.ArchivesFound, snap.ArchiveBytes)
	}
	if snap.Succeeded != 2 || snap.Failed != 1 {
		t.Errorf("ok=%d failed=%d", snap.Succeeded, snap.Failed)
	}
	if snap.BytesFreed != 10 || snap.ArchivesDeleted != 1 {
		t.Errorf("freed=%d deleted=%d", snap.BytesFreed, snap.ArchivesDeleted)
	}
	if snap.FilesExtracted != 2 || snap.BytesWritten != 10 {
		t.Errorf("files=%d written=%d", snap.FilesExtracted, snap.BytesWritten)
	}
	if snap.Rounds != 2 || snap.DecodeFallbacks != 1 || len(snap.Warnings) != 0 {
		t.Errorf("rounds=%d fallbacks=%d warnings=%v", snap.Rounds, snap.DecodeFallbacks, snap.Warnings)
	}
	if snap.Elapsed != 3*time.Second {
		t.Errorf("Elapsed = %v", snap.Elapsed)
	}
	if len(snap.Errors) != 1 || snap.Errors[0].Path != "/r/c.tgz" {
		t.Errorf("Errors = %v", snap.Errors)
	}

	var order []string
	for _, r := range snap.Records {
		order = append(order, filepath.Base(r.Task.Path))
	}
	if strings.Join(order, ",") != "c.tgz,a.zip,b.zip" {
		t.Errorf("record order = %v", order)
	}

	if c := snap.PerFormat[format.TagZIP]; c.Succeeded != 2 {
		t.Errorf("zip counts = %+v", c)
	}
	if c := snap.PerFormat[format.TagTarGz]; c.Failed != 1 {
		t.Errorf("tar.gz counts = %+v", c)
	}

	// snapshots are copies
	snap.PerFormat[format.TagZIP] = FormatCounts{}
	if s.Snapshot().PerFormat[format.TagZIP].Succeeded != 2 {
		t.Error("mutating a snapshot leaked into the collector")
	}
}

func TestGroupTasks(t *testing.T) {
	p := func(idx int, dest string) plannedTask {
		return plannedTask{task: ArchiveTask{Index: idx}, dest: filepath.FromSlash(dest)}
	}

	groups := groupTasks([]plannedTask{
		p(0, "/r/a"),
		p(1, "/r/b"),
		p(2, "/r/a/inner"),
		p(3, "/r/c/x"),
		p(4, "/r/a"),
	})

	var got [][]int
	for _, g := range groups {
		var idx []int
		for _, pt := range g {
			idx = append(idx, pt.task.Index)
		}
		got = append(got, idx)
	}

	want := [][]int{{0, 2, 4}, {1}, {3}}
	if len(got) != len(want) {
		t.Fatalf("groups = %v, want %v", got, want)
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("groups = %v, want %v", got, want)
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("groups = %v, want %v", got, want)
			}
		}
	}
}

func TestPlan(t *testing.T) {
	root := filepath.FromSlash("/r")
	task := ArchiveTask{Path: filepath.FromSlash("/r/sub/Pack.Tar.GZ")}

	tests := []struct {
		name         string
		flatten      bool
		filesOnly    bool
		wantDest     string
		wantCollapse bool
	}{
		{"default", false, false, "/r/sub/Pack", false},
		{"flatten", true, false, "/r/Pack", true},
		{"files only", false, true, "/r/sub", true},
		{"both", true, true, "/r", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &session{
				root:     root,
				registry: format.DefaultRegistry(),
				opts:     &Options{FlattenStructure: tt.flatten, ExtractFilesOnly: tt.filesOnly},
			}
			pt := s.plan(task)
			if pt.dest != filepath.FromSlash(tt.wantDest) || pt.collapse != tt.wantCollapse {
				t.Errorf("plan = %s collapse=%v, want %s collapse=%v", pt.dest, pt.collapse, tt.wantDest, tt.wantCollapse)
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	res := &Result{
		ArchivesFound:     3,
		Succeeded:         1,
		PasswordProtected: 1,
		Failed:            1,
		Rounds:            2,
		BytesFreed:        2048,
		ArchivesDeleted:   1,
		MaxDepthExceeded:  true,
		PerFormat:         map[format.Tag]FormatCounts{format.TagZIP: {Succeeded: 1, Failed: 2}},
		Errors:            []ErrorEntry{{Path: "/r/x.rar", Err: errors.New("boom")}},
	}

	out := FormatSummary(res)
	for _, want := range []string{
		"Completed with 1 errors:",
		"/r/x.rar: boom",
		"Rounds:             2",
		"Password protected: 1",
		"1 (2.0 KiB freed)",
		"zip      1 ok, 0 partial, 2 failed",
		"Round limit reached",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Skipped") {
		t.Errorf("zero counters should be omitted:\n%s", out)
	}
}
