package tasks

import (
	"context"

	"github.com/stefanpenner/subtasks/pkg/ordered"
)

// hooks logs structural changes and stamps moved tasks as updated.
type hooks struct {
	s *Service
}

func (h *hooks) BeforeIndent(_ context.Context, list string) error {
	h.s.log.Debug().Str("list", list).Msg("indenting")
	return nil
}

func (h *hooks) OnMovedOrIndented(ctx context.Context, rec *ordered.Record) error {
	h.s.log.Debug().
		Int64("task", rec.TaskID).
		Int64("order", rec.Order).
		Int("indent", rec.Indent).
		Int64("parent", rec.Parent).
		Msg("task moved")

	task, err := h.s.backend.LoadTask(ctx, rec.TaskID)
	if err != nil {
		return err
	}
	return h.s.backend.SaveTask(ctx, task)
}
