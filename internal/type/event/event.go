// Released under an MIT license. See LICENSE.

// Package event defines the events an agent pushes to its clients.
package event

import "strconv"

// CellID is an opaque, agent-issued handle naming one cell.
// The zero value means no cell.
type CellID string

// Kind identifies the category of a session event.
type Kind string

// Evaluation is the Kind of session events that carry an evaluation event.
const Evaluation Kind = "Evaluation"

// Session is a value delivered on an agent's event stream.
// For the Evaluation kind, Data holds the evaluation event.
type Session struct {
	Kind Kind
	Data T
}

// T (event) is an evaluation event. The set of implementations is closed:
// Started, Finished, Output, Result and Diagnosed.
type T interface {
	Cell() CellID
	evaluation()
}

// Status is the terminal status of a cell's evaluation.
type Status int

// Evaluation statuses.
const (
	Success Status = iota
	Disconnected
	Interrupted
	EvaluationException
)

var statuses = [...]string{
	Success:             "Success",
	Disconnected:        "Disconnected",
	Interrupted:         "Interrupted",
	EvaluationException: "EvaluationException",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statuses) {
		return statuses[s]
	}

	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// ParseStatus returns the Status named s.
func ParseStatus(s string) (Status, bool) {
	for i, name := range statuses {
		if name == s {
			return Status(i), true
		}
	}

	return Success, false
}

// Severity orders diagnostics from least to most severe.
type Severity int

// Diagnostic severities.
const (
	Hidden Severity = iota
	Info
	Warning
	Error
)

var severities = [...]string{
	Hidden:  "Hidden",
	Info:    "Info",
	Warning: "Warning",
	Error:   "Error",
}

func (s Severity) String() string {
	if s >= 0 && int(s) < len(severities) {
		return severities[s]
	}

	return "Severity(" + strconv.Itoa(int(s)) + ")"
}

// ParseSeverity returns the Severity named s.
func ParseSeverity(s string) (Severity, bool) {
	for i, name := range severities {
		if name == s {
			return Severity(i), true
		}
	}

	return Hidden, false
}

// Diagnostic is a compiler message attached to a cell.
type Diagnostic struct {
	Severity Severity
	ID       string
	Message  string
	Line     int
	Column   int
}

// Representation is one rendering of a result value.
// Kind "reflection" carries the value's ToString text.
type Representation struct {
	Kind  string
	Value string
}

// Reflection is the Representation kind holding a ToString rendering.
const Reflection = "reflection"

// Started reports that evaluation of a cell began.
type Started struct {
	ID CellID
}

// Finished reports that evaluation of a cell settled.
type Finished struct {
	ID          CellID
	Status      Status
	Diagnostics []Diagnostic
}

// Output is a captured segment written by the evaluated code.
// FD is 1 for standard output and 2 for standard error.
type Output struct {
	ID    CellID
	FD    int
	Value string
}

// Result is a value produced by evaluating a cell.
type Result struct {
	ID              CellID
	Type            string
	Representations []Representation
}

// Diagnosed carries a diagnostic delivered outside a Finished event.
type Diagnosed struct {
	ID CellID
	Diagnostic
}

// Cell returns the cell the event belongs to.
func (e Started) Cell() CellID { return e.ID }

// Cell returns the cell the event belongs to.
func (e Finished) Cell() CellID { return e.ID }

// Cell returns the cell the event belongs to.
func (e Output) Cell() CellID { return e.ID }

// Cell returns the cell the event belongs to.
func (e Result) Cell() CellID { return e.ID }

// Cell returns the cell the event belongs to.
func (e Diagnosed) Cell() CellID { return e.ID }

func (Started) evaluation()   {}
func (Finished) evaluation()  {}
func (Output) evaluation()    {}
func (Result) evaluation()    {}
func (Diagnosed) evaluation() {}

// Text returns the text a console shows for r: the reflection rendering,
// then the first rendering, then "null".
func (r Result) Text() string {
	for _, rep := range r.Representations {
		if rep.Kind == Reflection {
			return rep.Value
		}
	}

	if len(r.Representations) > 0 {
		return r.Representations[0].Value
	}

	return "null"
}

// A compiler-checked list of interfaces these types satisfy. Never called.
func implements() { //nolint:deadcode,unused
	_ = T(Started{})
	_ = T(Finished{})
	_ = T(Output{})
	_ = T(Result{})
	_ = T(Diagnosed{})
}
