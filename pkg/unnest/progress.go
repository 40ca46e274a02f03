// pkg/unnest/progress.go
package unnest

import (
	"io"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressEvent is a display-level progress event. Library packages map
// their own events onto it before handing them to ProgressBarCallback.
type ProgressEvent struct {
	Type EventType

	// Label names the overall bar on EventStart and the item otherwise
	Label string

	Current int64
	Total   int64
}

// EventType indicates the type of progress event
type EventType int

const (
	// EventStart opens a new overall bar, replacing the previous one
	EventStart EventType = iota
	EventItemStart
	EventItemProgress
	EventItemComplete
	EventError
	EventComplete
)

// ProgressBarCallback creates a callback rendering one overall bar plus one
// spinner per running item. Item totals are unknown up front, so item bars
// show bytes written. Call Wait() on the returned container when done.
func ProgressBarCallback(out io.Writer) (func(ProgressEvent), *mpb.Progress) {
	opts := []mpb.ContainerOption{
		mpb.WithWidth(60),
		mpb.WithRefreshRate(150 * time.Millisecond),
	}
	if out != nil {
		opts = append(opts, mpb.WithOutput(out))
	}
	progress := mpb.New(opts...)

	var (
		mu         sync.Mutex
		overallBar *mpb.Bar
		itemBars   = make(map[string]*mpb.Bar)
	)

	finishItem := func(label string, failed bool) {
		if bar, ok := itemBars[label]; ok {
			if failed {
				bar.Abort(true)
			} else {
				bar.SetTotal(-1, true)
			}
			delete(itemBars, label)
		}
		if overallBar != nil {
			overallBar.Increment()
		}
	}

	callback := func(event ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()

		switch event.Type {
		case EventStart:
			if overallBar != nil && !overallBar.Completed() {
				overallBar.SetTotal(-1, true)
			}
			overallBar = progress.AddBar(event.Total,
				mpb.PrependDecorators(
					decor.Name(event.Label, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Percentage(decor.WC{W: 5}),
				),
				mpb.BarPriority(1000),
			)

		case EventItemStart:
			bar := progress.AddSpinner(0,
				mpb.PrependDecorators(
					decor.Name(TruncateLeft(event.Label, 40), decor.WC{C: decor.DindentRight | decor.DextraSpace, W: 42}),
				),
				mpb.AppendDecorators(
					decor.CurrentKibiByte("% .1f", decor.WC{W: 12}),
				),
				mpb.BarRemoveOnComplete(),
			)
			itemBars[event.Label] = bar

		case EventItemProgress:
			if bar, ok := itemBars[event.Label]; ok {
				bar.SetCurrent(event.Current)
			}

		case EventItemComplete:
			finishItem(event.Label, false)

		case EventError:
			finishItem(event.Label, true)

		case EventComplete:
			for label, bar := range itemBars {
				bar.Abort(true)
				delete(itemBars, label)
			}
			if overallBar != nil && !overallBar.Completed() {
				overallBar.SetTotal(-1, true)
			}
		}
	}

	return callback, progress
}
