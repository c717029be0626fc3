package tasks

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/subtasks/pkg/ordered"
	"github.com/stefanpenner/subtasks/pkg/store"
	"github.com/stefanpenner/subtasks/pkg/store/sqlite"
)

type backendFactory func(t *testing.T) Backend

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"files": func(t *testing.T) Backend {
			s, err := store.NewStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Backend {
			database, err := sqlite.Open(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { _ = database.Close() })
			return sqlite.NewStore(database)
		},
	}
}

// eachBackend runs fn against a fresh service with a "work" list for
// every backend.
func eachBackend(t *testing.T, fn func(t *testing.T, svc *Service)) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			svc := NewService(factory(t), zerolog.Nop())
			_, err := svc.CreateList(context.Background(), "work", "Work")
			require.NoError(t, err)
			fn(t, svc)
		})
	}
}

func addAll(t *testing.T, svc *Service, titles ...string) []int64 {
	t.Helper()
	var ids []int64
	for _, title := range titles {
		task, err := svc.AddTask(context.Background(), "work", title)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	return ids
}

type line struct {
	Title  string
	Indent int
	Parent string
	Status store.Status
}

// outline reads back the list in listing order with parents by title.
func outline(t *testing.T, svc *Service) []line {
	t.Helper()
	tasks, err := svc.Backend().TasksInList(context.Background(), "work")
	require.NoError(t, err)

	titles := make(map[int64]string)
	for _, task := range tasks {
		titles[task.ID] = task.Title
	}
	var out []line
	for i, task := range tasks {
		require.NotNil(t, task.Outline, "task %q unplaced", task.Title)
		require.Equal(t, int64(i), task.Outline.Order, "task %q order", task.Title)
		out = append(out, line{
			Title:  task.Title,
			Indent: task.Outline.Indent,
			Parent: titles[task.Outline.Parent],
			Status: task.Status,
		})
	}
	return out
}

func titlesOf(lines []line) []string {
	var out []string
	for _, l := range lines {
		out = append(out, l.Title)
	}
	return out
}

func TestAddTask(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		addAll(t, svc, "a", "b", "c")

		assert.Equal(t, []line{
			{Title: "a", Status: store.StatusTodo},
			{Title: "b", Status: store.StatusTodo},
			{Title: "c", Status: store.StatusTodo},
		}, outline(t, svc))

		_, err := svc.AddTask(context.Background(), "work", "   ")
		assert.ErrorIs(t, err, ErrEmptyTitle)

		_, err = svc.AddTask(context.Background(), "missing", "x")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestAddSubtask(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a", "b")

		a1, err := svc.AddSubtask(ctx, ids[0], "a1")
		require.NoError(t, err)
		_, err = svc.AddSubtask(ctx, ids[0], "a2")
		require.NoError(t, err)
		_, err = svc.AddSubtask(ctx, a1.ID, "a1x")
		require.NoError(t, err)

		assert.Equal(t, []line{
			{Title: "a", Indent: 0, Status: store.StatusTodo},
			{Title: "a1", Indent: 1, Parent: "a", Status: store.StatusTodo},
			{Title: "a1x", Indent: 2, Parent: "a1", Status: store.StatusTodo},
			{Title: "a2", Indent: 1, Parent: "a", Status: store.StatusTodo},
			{Title: "b", Indent: 0, Status: store.StatusTodo},
		}, outline(t, svc))

		_, err = svc.AddSubtask(ctx, 999, "x")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestIndentOutdent(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a", "b", "c")

		require.NoError(t, svc.Indent(ctx, ids[1]))
		require.NoError(t, svc.Indent(ctx, ids[2]))
		require.NoError(t, svc.Indent(ctx, ids[2]))

		lines := outline(t, svc)
		assert.Equal(t, []int{0, 1, 2}, []int{lines[0].Indent, lines[1].Indent, lines[2].Indent})
		assert.Equal(t, "b", lines[2].Parent)

		// a third indent would skip a level
		require.NoError(t, svc.Indent(ctx, ids[2]))
		assert.Equal(t, 2, outline(t, svc)[2].Indent)

		require.NoError(t, svc.Outdent(ctx, ids[1]))
		lines = outline(t, svc)
		assert.Equal(t, 0, lines[1].Indent)
		assert.Equal(t, "", lines[1].Parent)
		assert.Equal(t, 1, lines[2].Indent)
		assert.Equal(t, "b", lines[2].Parent)

		assert.ErrorIs(t, svc.Indent(ctx, 999), store.ErrNotFound)
	})
}

func TestMoveBefore(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a", "b", "c")
		require.NoError(t, svc.Indent(ctx, ids[1]))

		// c goes under a, before b
		require.NoError(t, svc.MoveBefore(ctx, ids[2], ids[1]))
		assert.Equal(t, []line{
			{Title: "a", Status: store.StatusTodo},
			{Title: "c", Indent: 1, Parent: "a", Status: store.StatusTodo},
			{Title: "b", Indent: 1, Parent: "a", Status: store.StatusTodo},
		}, outline(t, svc))

		// a cannot move into its own subtree
		require.NoError(t, svc.MoveBefore(ctx, ids[0], ids[1]))
		assert.Equal(t, []string{"a", "c", "b"}, titlesOf(outline(t, svc)))

		require.NoError(t, svc.MoveToRoot(ctx, ids[1]))
		assert.Equal(t, []line{
			{Title: "a", Status: store.StatusTodo},
			{Title: "c", Indent: 1, Parent: "a", Status: store.StatusTodo},
			{Title: "b", Status: store.StatusTodo},
		}, outline(t, svc))
	})
}

func TestMoveBeforeOtherList(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a")
		_, err := svc.CreateList(ctx, "home", "")
		require.NoError(t, err)
		other, err := svc.AddTask(ctx, "home", "x")
		require.NoError(t, err)

		assert.ErrorIs(t, svc.MoveBefore(ctx, ids[0], other.ID), ErrCrossList)
	})
}

func TestMoveUpDown(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a", "b", "c")
		child, err := svc.AddSubtask(ctx, ids[0], "a1")
		require.NoError(t, err)

		require.NoError(t, svc.MoveDown(ctx, ids[0]))
		assert.Equal(t, []string{"b", "a", "a1", "c"}, titlesOf(outline(t, svc)))

		require.NoError(t, svc.MoveUp(ctx, ids[2]))
		assert.Equal(t, []string{"b", "c", "a", "a1"}, titlesOf(outline(t, svc)))

		// first and last siblings stay put
		require.NoError(t, svc.MoveUp(ctx, ids[1]))
		require.NoError(t, svc.MoveDown(ctx, ids[0]))
		require.NoError(t, svc.MoveDown(ctx, child.ID))
		assert.Equal(t, []string{"b", "c", "a", "a1"}, titlesOf(outline(t, svc)))
	})
}

func TestDeletePromotesChildren(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a", "b")
		a1, err := svc.AddSubtask(ctx, ids[0], "a1")
		require.NoError(t, err)
		_, err = svc.AddSubtask(ctx, a1.ID, "a1x")
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, ids[0]))

		assert.Equal(t, []line{
			{Title: "a1", Indent: 0, Status: store.StatusTodo},
			{Title: "a1x", Indent: 1, Parent: "a1", Status: store.StatusTodo},
			{Title: "b", Indent: 0, Status: store.StatusTodo},
		}, outline(t, svc))

		_, err = svc.Task(ctx, ids[0])
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, ids[0]), store.ErrNotFound)
	})
}

func TestSetStatusDoneCascades(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a", "b")
		a1, err := svc.AddSubtask(ctx, ids[0], "a1")
		require.NoError(t, err)
		_, err = svc.AddSubtask(ctx, a1.ID, "a1x")
		require.NoError(t, err)

		_, err = svc.SetStatus(ctx, ids[0], store.StatusDone)
		require.NoError(t, err)

		var statuses []store.Status
		for _, l := range outline(t, svc) {
			statuses = append(statuses, l.Status)
		}
		assert.Equal(t, []store.Status{store.StatusDone, store.StatusDone, store.StatusDone, store.StatusTodo}, statuses)

		// reopening does not touch the children
		_, err = svc.SetStatus(ctx, ids[0], store.StatusDoing)
		require.NoError(t, err)
		child, err := svc.Task(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, store.StatusDone, child.Status)

		_, err = svc.SetStatus(ctx, ids[0], store.Status("later"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestCycleStatus(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a")

		want := []store.Status{store.StatusDoing, store.StatusDone, store.StatusTodo}
		for _, status := range want {
			task, err := svc.CycleStatus(ctx, ids[0])
			require.NoError(t, err)
			assert.Equal(t, status, task.Status)
		}
	})
}

func TestRenameAndNotes(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a")

		task, err := svc.Rename(ctx, ids[0], "  renamed ")
		require.NoError(t, err)
		assert.Equal(t, "renamed", task.Title)

		_, err = svc.Rename(ctx, ids[0], "")
		assert.ErrorIs(t, err, ErrEmptyTitle)

		task, err = svc.AddNote(ctx, ids[0], "remember milk")
		require.NoError(t, err)
		assert.Contains(t, task.Body, "- remember milk")

		_, err = svc.AddNote(ctx, ids[0], " ")
		assert.Error(t, err)

		task, err = svc.SetNotes(ctx, ids[0], "replaced")
		require.NoError(t, err)
		assert.Equal(t, "replaced", task.Body)

		results, err := svc.Search(ctx, "RENAMED")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, ids[0], results[0].ID)
	})
}

func TestTree(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a", "b")
		a1, err := svc.AddSubtask(ctx, ids[0], "a1")
		require.NoError(t, err)
		_, err = svc.AddSubtask(ctx, ids[0], "a2")
		require.NoError(t, err)
		_, err = svc.SetStatus(ctx, a1.ID, store.StatusDone)
		require.NoError(t, err)

		roots, err := svc.Tree(ctx, "work")
		require.NoError(t, err)
		require.Len(t, roots, 2)
		assert.Equal(t, "a", roots[0].Task.Title)
		require.Len(t, roots[0].Children, 2)
		assert.Equal(t, "a1", roots[0].Children[0].Task.Title)
		assert.Equal(t, 1, roots[0].Children[0].Depth)
		assert.Same(t, roots[0], roots[0].Children[0].Parent)
		assert.False(t, roots[1].HasChildren())

		done, total := roots[0].Progress()
		assert.Equal(t, 1, done)
		assert.Equal(t, 2, total)

		var flat []string
		for _, it := range Flatten(roots) {
			flat = append(flat, it.Task.Title)
		}
		assert.Equal(t, []string{"a", "a1", "a2", "b"}, flat)
	})
}

func TestNormalizeRepairsStaleParents(t *testing.T) {
	eachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		ids := addAll(t, svc, "a", "b", "c", "d")
		require.NoError(t, svc.Indent(ctx, ids[1]))
		require.NoError(t, svc.Indent(ctx, ids[2]))
		require.NoError(t, svc.Indent(ctx, ids[2]))
		require.NoError(t, svc.Indent(ctx, ids[3]))

		// a, b(1), c(2), d(1); outdenting b leaves d pointing at a
		require.NoError(t, svc.Outdent(ctx, ids[1]))
		assert.Equal(t, "a", outline(t, svc)[3].Parent)

		require.NoError(t, svc.Normalize(ctx, "work"))
		assert.Equal(t, "b", outline(t, svc)[3].Parent)

		assert.ErrorIs(t, svc.Normalize(ctx, "missing"), store.ErrNotFound)
	})
}

func TestOnChangeAndIgnoreParent(t *testing.T) {
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)

	var changed []string
	svc := NewService(s, zerolog.Nop(),
		WithIgnoreParent(true),
		WithOnChange(func(list string) { changed = append(changed, list) }),
	)
	ctx := context.Background()
	_, err = svc.CreateList(ctx, "work", "")
	require.NoError(t, err)

	ids := addAll(t, svc, "a", "b")
	require.NoError(t, svc.Indent(ctx, ids[1]))

	task, err := svc.Task(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, 1, task.Outline.Indent)
	assert.Equal(t, ordered.NoID, task.Outline.Parent)

	assert.Equal(t, []string{"work", "work", "work"}, changed)
}
