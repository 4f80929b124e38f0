package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/intelliplan/planboard/internal/dates"
)

// Store keeps planner records in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// OpenStore opens (creating if needed) the database at path and migrates it.
// path may be ":memory:".
func OpenStore(path string, logger *log.Logger) (*Store, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	if logger == nil {
		logger = log.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Events(ctx context.Context, r Range) ([]CalendarEvent, error) {
	from, to := dates.ISODate(r.Start), dates.ISODate(r.End)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, start, "end", all_day
		FROM calendar_events
		WHERE substr(start, 1, 10) <= ?
		  AND (substr(start, 1, 10) >= ? OR substr("end", 1, 10) >= ?)
		ORDER BY start, id`, to, from, from)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []CalendarEvent
	for rows.Next() {
		var e CalendarEvent
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Start, &e.End, &e.AllDay); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return FilterEvents(events, r), nil
}

func (s *Store) Tasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, subject, due_date, due_time, status
		FROM tasks
		ORDER BY due_date = '', due_date, due_time = '', due_time, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Subject, &t.DueDate, &t.DueTime, &t.Status); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) Classes(ctx context.Context, view ClassView) ([]ClassSchedule, error) {
	query := `SELECT id, name, starts_at, days, start_time, end_time, professor, status FROM classes`
	switch view {
	case ClassViewCurrent:
		query += ` WHERE status <> 'archived'`
	case ClassViewPast:
		query += ` WHERE status = 'archived'`
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	var classes []ClassSchedule
	for rows.Next() {
		var c ClassSchedule
		if err := rows.Scan(&c.ID, &c.Name, &c.StartsAt, &c.Days, &c.StartTime, &c.EndTime, &c.Professor, &c.Status); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (s *Store) Exams(ctx context.Context, r Range) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, exam_date, exam_time, location, status
		FROM exams
		WHERE exam_date BETWEEN ? AND ?
		ORDER BY exam_date, exam_time, id DESC`, dates.ISODate(r.Start), dates.ISODate(r.End))
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	defer rows.Close()

	var exams []Exam
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.ExamDate, &e.ExamTime, &e.Location, &e.Status); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ImportResult counts what Import wrote and skipped.
type ImportResult struct {
	Events, Tasks, Classes, Exams int
	Skipped                       int
}

func (r ImportResult) Total() int {
	return r.Events + r.Tasks + r.Classes + r.Exams
}

// Import upserts records in one transaction. Records without an id get a
// fresh UUID; records whose dates cannot be read are skipped.
func (s *Store) Import(ctx context.Context, recs Records) (ImportResult, error) {
	var res ImportResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, e := range recs.Events {
		start, err := e.StartTime()
		if err != nil {
			s.logger.Debug("skipping event", "id", e.ID, "err", err)
			res.Skipped++
			continue
		}
		startText, endText := start.Format(rangeLayout), ""
		if e.AllDay {
			startText = dates.ISODate(start)
		}
		if end, ok := e.EndTime(); ok {
			endText = end.Format(rangeLayout)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO calendar_events (id, title, description, start, "end", all_day) VALUES (?, ?, ?, ?, ?, ?)`,
			idOrNew(e.ID), e.Title, e.Description, startText, endText, e.AllDay); err != nil {
			return res, fmt.Errorf("insert event: %w", err)
		}
		res.Events++
	}

	for _, t := range recs.Tasks {
		due := ""
		if t.DueDate != "" {
			d, ok := t.Due()
			if !ok {
				s.logger.Debug("skipping task", "id", t.ID, "due_date", t.DueDate)
				res.Skipped++
				continue
			}
			due = dates.ISODate(d)
		}
		status := t.Status
		if status == "" {
			status = TaskOpen
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO tasks (id, title, subject, due_date, due_time, status) VALUES (?, ?, ?, ?, ?, ?)`,
			idOrNew(t.ID), t.Title, t.Subject, due, t.DueTime, status); err != nil {
			return res, fmt.Errorf("insert task: %w", err)
		}
		res.Tasks++
	}

	for _, c := range recs.Classes {
		status := c.Status
		if status == "" {
			status = ClassActive
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO classes (id, name, starts_at, days, start_time, end_time, professor, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			idOrNew(c.ID), c.Name, c.StartsAt, c.Days, c.StartTime, c.EndTime, c.Professor, status); err != nil {
			return res, fmt.Errorf("insert class: %w", err)
		}
		res.Classes++
	}

	for _, e := range recs.Exams {
		d, err := ParseTimestamp(e.ExamDate)
		if err != nil {
			s.logger.Debug("skipping exam", "id", e.ID, "err", err)
			res.Skipped++
			continue
		}
		status := e.Status
		if status == "" {
			status = ExamScheduled
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO exams (id, title, exam_date, exam_time, location, status) VALUES (?, ?, ?, ?, ?, ?)`,
			idOrNew(e.ID), e.Title, dates.ISODate(d), e.ExamTime, e.Location, status); err != nil {
			return res, fmt.Errorf("insert exam: %w", err)
		}
		res.Exams++
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

func idOrNew(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}
