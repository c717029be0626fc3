package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/stefanpenner/subtasks/pkg/ordered"
	"github.com/stefanpenner/subtasks/pkg/store"
)

// Store implements the list and task operations on SQLite.
type Store struct {
	db  *DB
	now func() time.Time
}

var (
	_ ordered.Store[string]  = (*Store)(nil)
	_ ordered.Lister[string] = (*Store)(nil)
)

// NewStore creates a new SQLite-backed store.
func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const taskColumns = `id, list_slug, title, status, body, tags,
	position_order, position_indent, position_parent, created_at, updated_at`

const listingOrder = `position_order IS NULL, position_order, id`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*store.Task, error) {
	var (
		t                     store.Task
		status, tags          string
		order, indent, parent sql.NullInt64
		createdAt, updatedAt  int64
	)
	err := row.Scan(&t.ID, &t.List, &t.Title, &status, &t.Body, &tags,
		&order, &indent, &parent, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Status = store.Status(status)
	if tags != "" {
		t.Tags = strings.Split(tags, ",")
	}
	if order.Valid {
		t.Outline = &store.Outline{
			Order:  order.Int64,
			Indent: int(indent.Int64),
			Parent: parent.Int64,
		}
	}
	t.Created = time.Unix(0, createdAt)
	t.Updated = time.Unix(0, updatedAt)
	return &t, nil
}

func queryTasks(ctx context.Context, q DBTX, query string, args ...any) ([]*store.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []*store.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func outlineArgs(o *store.Outline) (order, indent, parent sql.NullInt64) {
	if o == nil {
		return
	}
	order = sql.NullInt64{Int64: o.Order, Valid: true}
	indent = sql.NullInt64{Int64: int64(o.Indent), Valid: true}
	parent = sql.NullInt64{Int64: o.Parent, Valid: true}
	return order, indent, parent
}

// CreateList creates a new empty list. The slug is derived from name.
func (s *Store) CreateList(ctx context.Context, name, title string) (*store.List, error) {
	slug := store.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("list name is required")
	}
	if title == "" {
		title = name
	}

	now := s.now()
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO lists (slug, title, body, created_at, updated_at) VALUES (?, ?, '', ?, ?)`,
		slug, title, now.UnixNano(), now.UnixNano())
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("list %s: %w", slug, store.ErrExists)
		}
		return nil, fmt.Errorf("create list: %w", err)
	}

	return &store.List{Title: title, Created: now, Updated: now, Slug: slug}, nil
}

// LoadList returns a single list by slug.
func (s *Store) LoadList(ctx context.Context, slug string) (*store.List, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT slug, title, body, created_at, updated_at FROM lists WHERE slug = ?`, slug)

	l, err := scanList(row)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("list %s: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

func scanList(row scanner) (*store.List, error) {
	var (
		l                    store.List
		createdAt, updatedAt int64
	)
	if err := row.Scan(&l.Slug, &l.Title, &l.Body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	l.Created = time.Unix(0, createdAt)
	l.Updated = time.Unix(0, updatedAt)
	return &l, nil
}

// Lists returns every list, sorted by slug.
func (s *Store) Lists(ctx context.Context) ([]*store.List, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT slug, title, body, created_at, updated_at FROM lists ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lists []*store.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// SaveList updates a list's title and description.
func (s *Store) SaveList(ctx context.Context, l *store.List) error {
	l.Updated = s.now()
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE lists SET title = ?, body = ?, updated_at = ? WHERE slug = ?`,
		l.Title, l.Body, l.Updated.UnixNano(), l.Slug)
	if err != nil {
		return fmt.Errorf("update list: %w", err)
	}
	return requireRow(res, "list "+l.Slug)
}

// DeleteList removes a list and every task in it.
func (s *Store) DeleteList(ctx context.Context, slug string) error {
	return s.db.WithTx(ctx, func(tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE list_slug = ?`, slug); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE slug = ?`, slug)
		if err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		return requireRow(res, "list "+slug)
	})
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

// CreateTask adds an unplaced task at the end of a list.
func (s *Store) CreateTask(ctx context.Context, list, title string) (*store.Task, error) {
	now := s.now()
	task := &store.Task{
		List:    list,
		Title:   title,
		Status:  store.StatusTodo,
		Created: now,
		Updated: now,
	}

	err := s.db.WithTx(ctx, func(tx DBTX) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM lists WHERE slug = ?`, list).Scan(&exists)
		if IsNotFoundError(err) {
			return fmt.Errorf("list %s: %w", list, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get list: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (list_slug, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			list, title, string(task.Status), now.UnixNano(), now.UnixNano())
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		task.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// LoadTask returns a single task by ID.
func (s *Store) LoadTask(ctx context.Context, id int64) (*store.Task, error) {
	row := s.db.Conn().QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("task %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// SaveTask writes every field of a task and stamps its update time.
func (s *Store) SaveTask(ctx context.Context, t *store.Task) error {
	t.Updated = s.now()
	order, indent, parent := outlineArgs(t.Outline)

	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE tasks SET list_slug = ?, title = ?, status = ?, body = ?, tags = ?,
			position_order = ?, position_indent = ?, position_parent = ?, updated_at = ?
		WHERE id = ?`,
		t.List, t.Title, string(t.Status), t.Body, strings.Join(t.Tags, ","),
		order, indent, parent, t.Updated.UnixNano(), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(res, fmt.Sprintf("task %d", t.ID))
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res, fmt.Sprintf("task %d", id))
}

// TasksInList returns the tasks of a list in listing order.
func (s *Store) TasksInList(ctx context.Context, list string) ([]*store.Task, error) {
	tasks, err := queryTasks(ctx, s.db.Conn(),
		`SELECT `+taskColumns+` FROM tasks WHERE list_slug = ? ORDER BY `+listingOrder, list)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// AddNote appends a note entry to a task's body.
func (s *Store) AddNote(ctx context.Context, id int64, text string) (*store.Task, error) {
	var task *store.Task
	err := s.db.WithTx(ctx, func(tx DBTX) error {
		row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
		t, err := scanTask(row)
		if IsNotFoundError(err) {
			return fmt.Errorf("task %d: %w", id, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get task: %w", err)
		}

		now := s.now()
		t.Body = store.AppendNote(t.Body, text, now)
		t.Updated = now
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET body = ?, updated_at = ? WHERE id = ?`,
			t.Body, now.UnixNano(), id)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SearchTasks matches query against titles and notes, ignoring case.
// Results are grouped by list slug, in listing order within a list.
func (s *Store) SearchTasks(ctx context.Context, query string) ([]*store.Task, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	tasks, err := queryTasks(ctx, s.db.Conn(),
		`SELECT `+taskColumns+` FROM tasks
		WHERE lower(title) LIKE ? ESCAPE '\' OR lower(body) LIKE ? ESCAPE '\'
		ORDER BY list_slug, `+listingOrder, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return tasks, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Get returns the outline record of a task. Missing tasks and unplaced
// tasks both yield nil.
func (s *Store) Get(ctx context.Context, taskID int64) (*ordered.Record, error) {
	t, err := s.LoadTask(ctx, taskID)
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t.Record(), nil
}

// CreateEmpty returns a fresh unsaved record.
func (s *Store) CreateEmpty(_ context.Context, _ string, taskID int64) (*ordered.Record, error) {
	return ordered.NewRecord(taskID), nil
}

// Save writes a record's position columns. The task's update time is left
// alone.
func (s *Store) Save(ctx context.Context, rec *ordered.Record) error {
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE tasks SET position_order = ?, position_indent = ?, position_parent = ? WHERE id = ?`,
		rec.Order, rec.Indent, rec.Parent, rec.TaskID)
	if err != nil {
		if IsBusyError(err) {
			return fmt.Errorf("save position of %d: database busy: %w", rec.TaskID, err)
		}
		return fmt.Errorf("save position of %d: %w", rec.TaskID, err)
	}
	return requireRow(res, fmt.Sprintf("task %d", rec.TaskID))
}

// Iterate walks a list in listing order. The rows are read in full before
// fn is called, so fn may write to the database.
func (s *Store) Iterate(ctx context.Context, list string, fn func(int64, *ordered.Record) error) error {
	tasks, err := s.TasksInList(ctx, list)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := fn(t.ID, t.Record()); err != nil {
			return err
		}
	}
	return nil
}
