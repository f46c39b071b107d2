package schedule

import (
	"bytes"
	"encoding/xml"
	"time"

	appErr "github.com/contracthub/engine/pkg/errors"
)

// File is the decoded schedule interchange document: a project with a task
// list, a dependency link list and an optional planned finish date.
type File struct {
	XMLName    xml.Name `xml:"Project"`
	Name       string   `xml:"Name"`
	FinishDate string   `xml:"FinishDate"`
	Tasks      []Task   `xml:"Tasks>Task"`
	Links      []Link   `xml:"Links>Link"`
}

// Task is one task row as it appears in the file. A file with a single task
// decodes to a one-element slice; the scalar-vs-list quirk of other
// interchange bindings does not arise here.
type Task struct {
	ID              string `xml:"ID"`
	Name            string `xml:"Name"`
	Start           string `xml:"Start"`
	Finish          string `xml:"Finish"`
	Duration        string `xml:"Duration"`
	PercentComplete int    `xml:"PercentComplete"`
	Critical        bool   `xml:"Critical"`
	TotalSlack      int    `xml:"TotalSlack"`
	WBS             string `xml:"WBS"`
	OutlineNumber   string `xml:"OutlineNumber"`
	OutlineLevel    int    `xml:"OutlineLevel"`
	Milestone       bool   `xml:"Milestone"`
	Summary         bool   `xml:"Summary"`
	Notes           string `xml:"Notes"`
}

// Link is one dependency edge between two task ids in the file.
type Link struct {
	From string `xml:"From"`
	To   string `xml:"To"`
	Type string `xml:"Type"`
	Lag  int    `xml:"Lag"`
}

// Magic prefixes of container formats we refuse to parse: OLE compound files
// (legacy binary project files) and zip-based exports.
var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
)

// ParseFile decodes raw file content into a File. Binary containers are
// rejected as not implemented; a document without a task list is invalid.
// Both are fatal for the parse call, before anything is written.
func ParseFile(data []byte) (*File, error) {
	if bytes.HasPrefix(data, oleMagic) || bytes.HasPrefix(data, zipMagic) {
		return nil, appErr.New(appErr.CodeNotImplemented, "binary schedule containers are not supported")
	}

	var f File
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "schedule file is not valid XML")
	}
	if len(f.Tasks) == 0 {
		return nil, appErr.New(appErr.CodeInvalid, "schedule file contains no task list")
	}
	return &f, nil
}

var dateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02"}

// parseDate parses the date formats the interchange format emits. Returns nil
// for empty or unparseable values; a bad date on one task never fails the
// whole import.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
