package search

import (
	"context"
	"slices"

	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
)

// Labels returns every distinct non-empty label the user has put on a
// notebook, section or note, sorted. A user without labels gets an empty
// slice, not an error.
func (e *Engine) Labels(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, &InvalidRequestError{Message: MsgUserRequired}
	}

	filter := storage.Filter{UserID: userID}
	var notebooks, sections, notes []string
	err := e.fanOut(ctx,
		func(ctx context.Context) (err error) {
			notebooks, err = distinctLabels(ctx, e.notebooks, core.EntityNotebook, filter)
			return err
		},
		func(ctx context.Context) (err error) {
			sections, err = distinctLabels(ctx, e.sections, core.EntitySection, filter)
			return err
		},
		func(ctx context.Context) (err error) {
			notes, err = distinctLabels(ctx, e.notes, core.EntityNote, filter)
			return err
		},
	)
	if err != nil {
		e.logger.Error("label catalog failed", "user", userID, "err", err)
		return nil, err
	}

	return unionLabels(notebooks, sections, notes), nil
}

func distinctLabels[T core.Entity](ctx context.Context, store storage.EntityStore[T], kind core.EntityType, filter storage.Filter) ([]string, error) {
	values, err := store.Distinct(ctx, storage.FieldLabels, filter)
	if err != nil {
		return nil, &StoreError{Kind: kind, Err: err}
	}
	return values, nil
}

func unionLabels(sets ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, set := range sets {
		for _, l := range set {
			if l != "" && !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	slices.Sort(out)
	return out
}
