package display

import (
	"sync"

	"github.com/xcawolfe-amzn/hiscore/internal/record"
)

// Shown is one ShowRecords call captured by Recorder.
type Shown struct {
	Records record.Set
	Title   string
	Message string
}

// Notice is one ShowFailureNotice call captured by Recorder.
type Notice struct {
	Failures int
	Reason   string
}

// Recorder captures everything it is asked to display.
type Recorder struct {
	mu       sync.Mutex
	Shown    []Shown
	Notices  []Notice
	Messages []string
}

// ShowRecords records a copy of records.
func (r *Recorder) ShowRecords(records record.Set, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Shown = append(r.Shown, Shown{Records: records.Clone(), Title: title, Message: message})
}

// ShowFailureNotice records the notice.
func (r *Recorder) ShowFailureNotice(failures int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, Notice{Failures: failures, Reason: reason})
}

// ShowMessage records the message title.
func (r *Recorder) ShowMessage(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, title)
}

// Last returns the most recent ShowRecords call.
func (r *Recorder) Last() (Shown, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Shown) == 0 {
		return Shown{}, false
	}
	return r.Shown[len(r.Shown)-1], true
}
