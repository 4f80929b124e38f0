package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// flexString accepts a JSON string, number or null. Ids and times arrive as
// either depending on the backing driver.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(data)
	}
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		*f = true
	case "false", "0", "", "null", "no":
		*f = false
	default:
		return fmt.Errorf("%w: boolean %q", ErrMalformedRecord, s)
	}
	return nil
}

type eventWire struct {
	ID          flexString `json:"id"`
	Title       flexString `json:"title"`
	Start       flexString `json:"start"`
	End         flexString `json:"end"`
	AllDay      *flexBool  `json:"allDay"`
	AllDaySnake *flexBool  `json:"all_day"`
	Description flexString `json:"description"`
}

func (e *CalendarEvent) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := sonic.Unmarshal(data, &w); err != nil {
		return err
	}

	*e = CalendarEvent{
		ID:          string(w.ID),
		Title:       string(w.Title),
		Start:       string(w.Start),
		End:         string(w.End),
		Description: string(w.Description),
	}
	switch {
	case w.AllDay != nil:
		e.AllDay = bool(*w.AllDay)
	case w.AllDaySnake != nil:
		e.AllDay = bool(*w.AllDaySnake)
	}
	return nil
}

type taskWire struct {
	ID      flexString `json:"id"`
	Title   flexString `json:"title"`
	Subject flexString `json:"subject"`
	DueDate flexString `json:"due_date"`
	DueTime flexString `json:"due_time"`
	Status  flexString `json:"status"`
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := sonic.Unmarshal(data, &w); err != nil {
		return err
	}

	*t = Task{
		ID:      string(w.ID),
		Title:   string(w.Title),
		Subject: string(w.Subject),
		DueDate: string(w.DueDate),
		DueTime: string(w.DueTime),
		Status:  TaskStatus(strings.ToLower(string(w.Status))),
	}
	if t.Status == "" {
		t.Status = TaskOpen
	}
	return nil
}

type classWire struct {
	ID        flexString `json:"id"`
	Name      flexString `json:"name"`
	Subject   flexString `json:"subject"`
	StartsAt  flexString `json:"starts_at"`
	Days      flexString `json:"days"`
	StartTime flexString `json:"start_time"`
	EndTime   flexString `json:"end_time"`
	Professor flexString `json:"professor"`
	Status    flexString `json:"status"`
}

func (c *ClassSchedule) UnmarshalJSON(data []byte) error {
	var w classWire
	if err := sonic.Unmarshal(data, &w); err != nil {
		return err
	}

	name := string(w.Name)
	if name == "" {
		name = string(w.Subject)
	}
	*c = ClassSchedule{
		ID:        string(w.ID),
		Name:      name,
		StartsAt:  string(w.StartsAt),
		Days:      string(w.Days),
		StartTime: string(w.StartTime),
		EndTime:   string(w.EndTime),
		Professor: string(w.Professor),
		Status:    ClassStatus(strings.ToLower(string(w.Status))),
	}
	if c.Status == "" {
		c.Status = ClassActive
	}
	return nil
}

type examWire struct {
	ID       flexString `json:"id"`
	Title    flexString `json:"title"`
	ExamDate flexString `json:"exam_date"`
	ExamTime flexString `json:"exam_time"`
	Location flexString `json:"location"`
	Status   flexString `json:"status"`
}

func (e *Exam) UnmarshalJSON(data []byte) error {
	var w examWire
	if err := sonic.Unmarshal(data, &w); err != nil {
		return err
	}

	*e = Exam{
		ID:       string(w.ID),
		Title:    string(w.Title),
		ExamDate: string(w.ExamDate),
		ExamTime: string(w.ExamTime),
		Location: string(w.Location),
		Status:   ExamStatus(strings.ToLower(string(w.Status))),
	}
	if e.Status == "" {
		e.Status = ExamScheduled
	}
	return nil
}

// decodeList decodes a JSON array of T, skipping elements that fail to
// decode on their own.
func decodeList[T any](data []byte) ([]T, error) {
	var raw []json.RawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}

	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := sonic.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
