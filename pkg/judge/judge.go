package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Well-known judge status identifiers, matching the Judge0 status table.
const (
	StatusInQueue           = 1
	StatusProcessing        = 2
	StatusAccepted          = 3
	StatusWrongAnswer       = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	StatusRuntimeErrorNZEC  = 11
	StatusInternalError     = 13
)

// Status is the judge's terminal status block for one execution.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Terminal reports whether the status will no longer change.
func (s Status) Terminal() bool {
	return s.ID != StatusInQueue && s.ID != StatusProcessing
}

// Result summarises one judged execution. Time is in seconds (decimal string,
// as reported by the judge) and Memory in kilobytes.
type Result struct {
	Status        Status  `json:"status"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr"`
	CompileOutput string  `json:"compile_output"`
	Time          string  `json:"time"`
	Memory        float64 `json:"memory"`
}

// Client executes one piece of code against one stdin and blocks until the
// judge reports a terminal status.
type Client interface {
	SubmitAndWait(ctx context.Context, sourceCode string, languageID int, stdin string) (Result, error)
}

// ErrUnknownLanguage indicates a language name with no judge identifier.
var ErrUnknownLanguage = errors.New("unknown language")

var languageIDs = map[string]int{
	"c":          50,
	"csharp":     51,
	"c#":         51,
	"cpp":        54,
	"c++":        54,
	"go":         60,
	"golang":     60,
	"java":       62,
	"javascript": 63,
	"js":         63,
	"python":     71,
	"python3":    71,
	"ruby":       72,
	"rust":       73,
	"typescript": 74,
	"kotlin":     78,
	"swift":      83,
}

// LanguageID resolves a language name to the judge's language identifier.
// Unknown names are rejected before any judge call is made.
func LanguageID(language string) (int, error) {
	id, ok := languageIDs[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	return id, nil
}
