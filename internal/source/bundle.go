package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
)

// BundleFile serves all four kinds from one JSON document of the form
// {"events": [...], "tasks": [...], "classes": [...], "exams": [...]}.
// The file is re-read on every fetch so edits show up on the next refresh.
type BundleFile struct {
	Path   string
	logger *log.Logger
	fileWatch
}

func NewBundleFile(path string, logger *log.Logger) *BundleFile {
	if logger == nil {
		logger = log.Default()
	}
	return &BundleFile{Path: path, logger: logger}
}

func (b *BundleFile) load() (*Static, error) {
	if b.Path == "" {
		return nil, ErrNoPath
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	r, err := DecodeBundle(data)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.Path, err)
	}
	return NewStatic(r), nil
}

func (b *BundleFile) Events(ctx context.Context, r Range) ([]CalendarEvent, error) {
	s, err := b.load()
	if err != nil {
		return nil, err
	}
	return s.Events(ctx, r)
}

func (b *BundleFile) Tasks(ctx context.Context) ([]Task, error) {
	s, err := b.load()
	if err != nil {
		return nil, err
	}
	return s.Tasks(ctx)
}

func (b *BundleFile) Classes(ctx context.Context, view ClassView) ([]ClassSchedule, error) {
	s, err := b.load()
	if err != nil {
		return nil, err
	}
	return s.Classes(ctx, view)
}

func (b *BundleFile) Exams(ctx context.Context, r Range) ([]Exam, error) {
	s, err := b.load()
	if err != nil {
		return nil, err
	}
	return s.Exams(ctx, r)
}

func (b *BundleFile) WatchFiles() (<-chan FileChangeEvent, error) {
	return b.watchPath(b.Path, b.logger)
}

type bundleWire struct {
	Events  json.RawMessage `json:"events"`
	Tasks   json.RawMessage `json:"tasks"`
	Classes json.RawMessage `json:"classes"`
	Exams   json.RawMessage `json:"exams"`
}

// DecodeBundle reads a bundle document. Individual malformed records are
// dropped, a malformed document is an error.
func DecodeBundle(data []byte) (Records, error) {
	var w bundleWire
	if err := sonic.Unmarshal(data, &w); err != nil {
		return Records{}, fmt.Errorf("decode bundle: %w", err)
	}

	var r Records
	var err error
	if r.Events, err = decodeSection[CalendarEvent](w.Events); err != nil {
		return Records{}, fmt.Errorf("events: %w", err)
	}
	if r.Tasks, err = decodeSection[Task](w.Tasks); err != nil {
		return Records{}, fmt.Errorf("tasks: %w", err)
	}
	if r.Classes, err = decodeSection[ClassSchedule](w.Classes); err != nil {
		return Records{}, fmt.Errorf("classes: %w", err)
	}
	if r.Exams, err = decodeSection[Exam](w.Exams); err != nil {
		return Records{}, fmt.Errorf("exams: %w", err)
	}
	return r, nil
}

func decodeSection[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return decodeList[T](raw)
}
