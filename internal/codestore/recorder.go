package codestore

// Kinds of codes, used as metric labels.
const (
	KindDevice       = "device"
	KindConfirmation = "confirmation"
)

// Recorder receives code lifecycle events.
type Recorder interface {
	CodeIssued(kind string)
	CodeResolved(kind string, status Status)
	CodesSwept(kind string, n int)
	SetPending(kind string, n int)
}

type nopRecorder struct{}

func (nopRecorder) CodeIssued(string)           {}
func (nopRecorder) CodeResolved(string, Status) {}
func (nopRecorder) CodesSwept(string, int)      {}
func (nopRecorder) SetPending(string, int)      {}
