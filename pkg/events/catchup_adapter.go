package events

import (
	"context"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// transcriptQuerier abstracts the store method needed by
// StoreCatchupAdapter. Implemented by *store.Store.
type transcriptQuerier interface {
	TranscriptSince(ctx context.Context, since int64) ([]models.TranscriptItem, error)
}

// StoreCatchupAdapter wraps a transcriptQuerier to implement
// CatchupQuerier. There is only one transcript (channel is ignored —
// every client ends up on the same feed, see types.go).
type StoreCatchupAdapter struct {
	store transcriptQuerier
}

// NewStoreCatchupAdapter creates a CatchupQuerier from a store.
func NewStoreCatchupAdapter(store transcriptQuerier) *StoreCatchupAdapter {
	return &StoreCatchupAdapter{store: store}
}

// GetCatchupEvents queries transcript items since sinceCursor, capped at
// limit entries.
func (a *StoreCatchupAdapter) GetCatchupEvents(ctx context.Context, channel string, sinceCursor int64, limit int) ([]models.TranscriptItem, error) {
	items, err := a.store.TranscriptSince(ctx, sinceCursor)
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
