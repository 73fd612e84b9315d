package app

import (
	"path"
	"strings"

	"paperdeck/internal/objectstore"
)

// Document is a source PDF found in the download folder.
type Document struct {
	Title     string
	SourceKey string
	FileName  string
}

func DocumentFromKey(key string) Document {
	return Document{
		Title:     objectstore.Stem(key),
		SourceKey: key,
		FileName:  path.Base(key),
	}
}

// State is where a document is in its processing lifecycle.
type State string

const (
	StateDiscovered      State = "DISCOVERED"
	StateSkipped         State = "SKIPPED"
	StateFetching        State = "FETCHING"
	StateExtracting      State = "EXTRACTING"
	StatePipelineRunning State = "PIPELINE_RUNNING"
	StateMaterializing   State = "MATERIALIZING"
	StatePersisting      State = "PERSISTING"
	StateCleanedUp       State = "CLEANED_UP"
	StateFailed          State = "FAILED"
)

// Outcome is the terminal report for one document. FailedAt names the state
// that was active when Err occurred.
type Outcome struct {
	Document Document
	State    State
	FailedAt State
	URL      string
	Err      error
}

type BatchReport struct {
	Outcomes []Outcome
}

func (r *BatchReport) count(state State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

func (r *BatchReport) Processed() int { return r.count(StateCleanedUp) }
func (r *BatchReport) Skipped() int   { return r.count(StateSkipped) }
func (r *BatchReport) Failed() int    { return r.count(StateFailed) }

// normalizeDocumentName accepts "paper_x.pdf" or "paper_x".
func normalizeDocumentName(name, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	if !strings.EqualFold(path.Ext(name), ext) {
		name += ext
	}
	return name
}
