package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarEventUnmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantAllDay bool
		wantID     string
	}{
		{name: "camel bool", json: `{"id":"e1","title":"A","start":"2025-08-27","allDay":true}`, wantAllDay: true, wantID: "e1"},
		{name: "snake int", json: `{"id":7,"title":"A","start":"2025-08-27","all_day":1}`, wantAllDay: true, wantID: "7"},
		{name: "snake string zero", json: `{"id":"e3","title":"A","start":"2025-08-27 10:00:00","all_day":"0"}`, wantAllDay: false, wantID: "e3"},
		{name: "camel wins", json: `{"id":"e4","start":"2025-08-27","allDay":false,"all_day":1}`, wantAllDay: false, wantID: "e4"},
		{name: "null end", json: `{"id":"e5","start":"2025-08-27T10:00:00+02:00","end":null}`, wantID: "e5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev CalendarEvent
			require.NoError(t, ev.UnmarshalJSON([]byte(tt.json)))
			assert.Equal(t, tt.wantID, ev.ID)
			assert.Equal(t, tt.wantAllDay, ev.AllDay)
		})
	}
}

func TestClassUnmarshalNameFallback(t *testing.T) {
	classes, err := decodeList[ClassSchedule]([]byte(`[
		{"id":1,"name":"Physics","subject":"PHY","days":"Mon,Wed","status":"active"},
		{"id":2,"name":null,"subject":"Chemistry","days":"Tue"},
		{"id":3,"name":"Old","status":"ARCHIVED"}
	]`))
	require.NoError(t, err)
	require.Len(t, classes, 3)

	assert.Equal(t, "Physics", classes[0].Name)
	assert.Equal(t, "Chemistry", classes[1].Name)
	assert.Equal(t, ClassActive, classes[1].Status)
	assert.True(t, classes[2].Archived())
}

func TestDecodeListSkipsBadElements(t *testing.T) {
	tasks, err := decodeList[Task]([]byte(`[
		{"id":1,"title":"ok","due_date":"2025-08-27","status":"open"},
		"not an object",
		{"id":2,"title":"also ok","due_date":null,"due_time":null}
	]`))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "", tasks[1].DueDate)
	assert.Equal(t, TaskOpen, tasks[1].Status)

	_, err = decodeList[Task]([]byte(`{"error":"Not logged in"}`))
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2025-08-27 09:30:00", want: "2025-08-27 09:30"},
		{in: "2025-08-27T09:30:00", want: "2025-08-27 09:30"},
		{in: "2025-08-27T09:30:00+09:00", want: "2025-08-27 09:30"},
		{in: "2025-08-27T23:30:00Z", want: "2025-08-27 23:30"},
		{in: "2025-08-27", want: "2025-08-27 00:00"},
		{in: "27/08/2025", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02 15:04"))
		})
	}
}

func TestParseInstantConvertsOffsets(t *testing.T) {
	got, err := ParseInstant("2025-08-27T23:30:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 8, 27, 23, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.Local, got.Location())

	got, err = ParseInstant("2025-08-27 09:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-27 09:30", got.Format("2006-01-02 15:04"))

	_, err = ParseInstant("soon")
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestClassDaySet(t *testing.T) {
	c := ClassSchedule{Days: " Mon, Wed ,,Fri "}
	assert.Equal(t, []string{"Mon", "Wed", "Fri"}, c.DaySet())
	assert.Empty(t, ClassSchedule{}.DaySet())
}
