package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort defines the activity views other modules may use.
type ActivityPort interface {
	Summary(ctx context.Context, limit int) (Summary, error)
}

// ActivityAdapter implements ActivityPort using the service container.
type ActivityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates a new ActivityAdapter.
func NewActivityAdapter(container mono.ServiceContainer) *ActivityAdapter {
	return &ActivityAdapter{container: container}
}

// Summary fetches the activity summary with at most limit recent entries.
func (a *ActivityAdapter) Summary(ctx context.Context, limit int) (Summary, error) {
	req := GetSummaryRequest{Limit: limit}
	var resp GetSummaryResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetSummary,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return Summary{}, fmt.Errorf("%s request failed: %w", ServiceGetSummary, err)
	}
	return resp.Summary, nil
}
