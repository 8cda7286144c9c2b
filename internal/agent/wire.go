// Released under an MIT license. See LICENSE.

package agent

import (
	"encoding/json"
	"fmt"

	"github.com/michaelmacinnis/cellar/internal/interface/backend"
	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// Methods.
const (
	Initialize     = "session/initialize"
	InsertCell     = "evaluation/insertCell"
	GetBuffer      = "evaluation/getBuffer"
	UpdateBuffer   = "evaluation/updateBuffer"
	Evaluate       = "evaluation/evaluate"
	IsCellComplete = "workspace/isCellComplete"
	Restore        = "packages/restore"

	// Notify is the method of notifications carrying session events.
	Notify = "session/event"
)

// Message is a request, response or notification.
type Message struct {
	ID     uint32          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Failure        `json:"error,omitempty"`
}

// Failure is the error member of a response.
type Failure struct {
	Message string `json:"message"`
}

type request struct {
	ID     uint32      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Parameters and results.

type cellText struct {
	ID    event.CellID `json:"id,omitempty"`
	Text  string       `json:"text"`
	After event.CellID `json:"after,omitempty"`
}

type cellID struct {
	ID event.CellID `json:"id"`
}

type completeness struct {
	Complete bool `json:"complete"`
}

type packages struct {
	Packages []backend.Package `json:"packages"`
}

// Notification is the payload of a session event notification.
type Notification struct {
	Kind  event.Kind      `json:"kind"`
	Event json.RawMessage `json:"event,omitempty"`
}

// Evaluation is the wire form of an evaluation event. Type selects the
// variant and so which of the other members are meaningful.
type Evaluation struct {
	Type string       `json:"type"`
	ID   event.CellID `json:"id"`

	Status      string       `json:"status,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`

	FD    int    `json:"fd,omitempty"`
	Value string `json:"value,omitempty"`

	ResultType      string           `json:"resultType,omitempty"`
	Representations []Representation `json:"representations,omitempty"`

	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

// Diagnostic is the wire form of event.Diagnostic.
type Diagnostic struct {
	Severity string `json:"severity"`
	ID       string `json:"id"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Representation is the wire form of event.Representation.
type Representation struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Decode converts the params of a session event notification.
func Decode(params json.RawMessage) (event.Session, error) {
	var n Notification
	if err := json.Unmarshal(params, &n); err != nil {
		return event.Session{}, err
	}

	s := event.Session{Kind: n.Kind}

	if n.Kind != event.Evaluation {
		return s, nil
	}

	var e Evaluation
	if err := json.Unmarshal(n.Event, &e); err != nil {
		return s, err
	}

	data, err := e.convert()
	if err != nil {
		return s, err
	}

	s.Data = data

	return s, nil
}

func (e Evaluation) convert() (event.T, error) {
	switch e.Type {
	case "started":
		return event.Started{ID: e.ID}, nil

	case "finished":
		status, ok := event.ParseStatus(e.Status)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", e.Status)
		}

		f := event.Finished{ID: e.ID, Status: status}

		for _, d := range e.Diagnostics {
			c, err := d.convert()
			if err != nil {
				return nil, err
			}

			f.Diagnostics = append(f.Diagnostics, c)
		}

		return f, nil

	case "output":
		return event.Output{ID: e.ID, FD: e.FD, Value: e.Value}, nil

	case "result":
		r := event.Result{ID: e.ID, Type: e.ResultType}

		for _, rep := range e.Representations {
			r.Representations = append(r.Representations, event.Representation(rep))
		}

		return r, nil

	case "diagnostic":
		if e.Diagnostic == nil {
			return nil, fmt.Errorf("diagnostic event without a diagnostic")
		}

		d, err := e.Diagnostic.convert()
		if err != nil {
			return nil, err
		}

		return event.Diagnosed{ID: e.ID, Diagnostic: d}, nil
	}

	return nil, fmt.Errorf("unknown evaluation event %q", e.Type)
}

func (d Diagnostic) convert() (event.Diagnostic, error) {
	severity, ok := event.ParseSeverity(d.Severity)
	if !ok {
		return event.Diagnostic{}, fmt.Errorf("unknown severity %q", d.Severity)
	}

	return event.Diagnostic{
		Severity: severity,
		ID:       d.ID,
		Message:  d.Message,
		Line:     d.Line,
		Column:   d.Column,
	}, nil
}
