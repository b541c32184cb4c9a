package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/claude/liftlog/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) currentWorkout(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var body any
	w, err := h.workout.Current(ctx)
	switch {
	case errors.Is(err, session.ErrNoWorkout):
		body = map[string]any{"in_progress": false}
	case err != nil:
		return nil, err
	default:
		body = w
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
