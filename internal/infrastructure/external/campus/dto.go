package campus

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════
// The feed's JSON shape is an external contract. Any field may arrive as an
// empty string; normalization to the domain's missing marker happens in the
// mapper, never here. DTOs mirror the wire exactly.

// RoutineEnvelopeDTO is the whole feed response: a version token plus the
// three record collections. A failing feed answers with a "status" field
// instead of data; see failureStatus.
type RoutineEnvelopeDTO struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`

	Version  string       `json:"version"`
	Routine  []SessionDTO `json:"routine"`
	Courses  []CourseDTO  `json:"courses"`
	Teachers []TeacherDTO `json:"teachers"`
}

// SessionDTO is one raw class meeting row.
type SessionDTO struct {
	ID         string `json:"id,omitempty"`
	Section    string `json:"section"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	CourseCode string `json:"course_code"`
	Room       string `json:"room"`
	Teacher    string `json:"teacher"`
	Day        string `json:"day"`
}

// CourseDTO is one course reference row.
type CourseDTO struct {
	CourseCode  string     `json:"course_code"`
	CourseTitle string     `json:"course_title"`
	Credits     FlexNumber `json:"credits"`
}

// TeacherDTO is one instructor reference row.
type TeacherDTO struct {
	Name            string `json:"name"`
	Teacher         string `json:"teacher"`
	Designation     string `json:"designation"`
	Department      string `json:"department"`
	Faculty         string `json:"faculty"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CellPhone       string `json:"cell_phone"`
	PersonalWebsite string `json:"personal_website"`
	ImageURL        string `json:"image_url"`
}

// FlexNumber decodes a JSON number that the feed sometimes sends as a quoted
// string or an empty string. An empty or unparseable value decodes to 0.
type FlexNumber float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = FlexNumber(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = FlexNumber(f)
	return nil
}

// failureStatus reports whether the envelope is a feed failure response.
// The feed signals errors by including a "status" field in the body rather
// than by HTTP status code alone.
func (e *RoutineEnvelopeDTO) failureStatus() (string, bool) {
	if e.Status == "" {
		return "", false
	}
	msg := e.Message
	if msg == "" {
		msg = e.Status
	}
	return msg, true
}
