package logger

import (
	"context"
	"log/slog"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[*slog.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*slog.Logger, error) {
			return New(), nil
		},
	})
}
