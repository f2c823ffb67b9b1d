package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecTableName is the table ExecRecorder writes into.
const ExecTableName = "exec_info"

// ExecRecorder records how a simulation run was launched: when it started
// and ended, the command line, and any property the caller adds.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec_info table in recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{recorder: recorder}
	recorder.CreateTable(ExecTableName, ExecInfo{})

	return e
}

// Start logs the start time and the command line.
func (e *ExecRecorder) Start() {
	e.Add("Start Time", timestamp(time.Now()))
	e.Add("Command", strings.Join(os.Args, " "))

	if wd, err := os.Getwd(); err == nil {
		e.Add("Working Directory", wd)
	}
}

// Add records an extra property, such as the run id or the seed.
func (e *ExecRecorder) Add(property, value string) {
	e.entries = append(e.entries, ExecInfo{Property: property, Value: value})
}

// End writes every property along with the end time and flushes.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTableName, entry)
	}

	e.recorder.InsertData(ExecTableName,
		ExecInfo{Property: "End Time", Value: timestamp(time.Now())})

	e.entries = nil

	e.recorder.Flush()
}

func timestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000000000")
}
