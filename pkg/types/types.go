package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// PhotoID identifies a captured photo for the lifetime of a session.
// Values are derived from the capture time in unix milliseconds and are
// strictly increasing within a process.
type PhotoID int64

// String returns the decimal form of the ID
func (id PhotoID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// AnalysisStatus tracks the analysis lifecycle of a photo
type AnalysisStatus int

const (
	// StatusNone means analysis was never requested
	StatusNone AnalysisStatus = iota
	// StatusPending means a request is in flight
	StatusPending
	// StatusDone means Analysis holds a parsed result
	StatusDone
	// StatusFailed means AnalysisErr holds the classified failure
	StatusFailed
)

func (s AnalysisStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "none"
	}
}

// Photo is one user-visible capture
type Photo struct {
	ID        PhotoID   `json:"id"`
	Data      []byte    `json:"-"`
	Handle    string    `json:"handle"`
	Timestamp time.Time `json:"timestamp"`
	Filename  string    `json:"filename"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`

	Status      AnalysisStatus  `json:"status"`
	Analysis    *AnalysisResult `json:"analysis,omitempty"`
	AnalysisErr error           `json:"-"`
	// AnalysisSeq numbers analysis requests; only the latest one may settle
	AnalysisSeq uint64 `json:"-"`
}

// Size returns the encoded byte length
func (p Photo) Size() int {
	return len(p.Data)
}

// AnalysisResult is the structured listing metadata returned by the vision model
type AnalysisResult struct {
	Title   string  `json:"title"`
	Details Details `json:"details"`
}

// Details holds the extracted item attributes. Every field is optional.
type Details struct {
	Brand        Text `json:"brand,omitempty"`
	Year         Text `json:"year,omitempty"`
	SetName      Text `json:"setName,omitempty"`
	CardNumber   Text `json:"cardNumber,omitempty"`
	SeriesNumber Text `json:"seriesNumber,omitempty"`
	Color        Text `json:"color,omitempty"`
	PlayerName   Text `json:"playerName,omitempty"`
	Team         Text `json:"team,omitempty"`
	Features     List `json:"features,omitempty"`
	Condition    Text `json:"condition,omitempty"`
	OtherInfo    Text `json:"otherInfo,omitempty"`
}

// Field is a display label paired with its rendered value
type Field struct {
	Label string
	Value string
}

// Fields returns the present attributes in display order. Values that are
// empty, the literal "null", or empty lists are skipped.
func (d Details) Fields() []Field {
	var out []Field
	add := func(label string, v Text) {
		if v.Present() {
			out = append(out, Field{Label: label, Value: strings.TrimSpace(string(v))})
		}
	}

	add("Brand", d.Brand)
	add("Year", d.Year)
	add("Set", d.SetName)
	add("Card #", d.CardNumber)
	add("Series #", d.SeriesNumber)
	add("Color", d.Color)
	add("Name", d.PlayerName)
	add("Team", d.Team)
	if feats := d.Features.Present(); len(feats) > 0 {
		out = append(out, Field{Label: "Features", Value: strings.Join(feats, ", ")})
	}
	add("Condition", d.Condition)
	add("Notes", d.OtherInfo)
	return out
}

// Text is a string attribute that tolerates numbers, booleans and null in JSON
type Text string

// Present reports whether the value carries information
func (t Text) Present() bool {
	s := strings.TrimSpace(string(t))
	return s != "" && !strings.EqualFold(s, "null")
}

// UnmarshalJSON accepts strings, numbers, booleans and null
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*t = Text(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(x))
	default:
		// objects and arrays keep their raw JSON form
		*t = Text(string(data))
	}
	return nil
}

// List is a string list attribute that also accepts a single string
type List []string

// Present returns the entries that carry information
func (l List) Present() []string {
	var out []string
	for _, s := range l {
		if Text(s).Present() {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// UnmarshalJSON accepts an array of scalars, a single string, or null
func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(List, 0, len(items))
		for _, it := range items {
			out = append(out, string(it))
		}
		*l = out
		return nil
	}
	var single Text
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = List{string(single)}
	return nil
}

// Region is a square crop region in source pixel coordinates
type Region struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Size int `json:"size"`
}
