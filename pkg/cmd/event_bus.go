package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/flowplane/flowplane/pkg/eventbus"
)

// NewEventBus creates the in-process event bus the canvas overlays and the
// API's live updates share.
//
// nolint:ireturn
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	return eventbus.NewGoChannelBus(watermill.NewSlogLogger(logger))
}
