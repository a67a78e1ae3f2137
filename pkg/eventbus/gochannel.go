package eventbus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewGoChannelBus creates an in-process event bus. The canvas overlay and
// the API's live updates subscribe to the same process, so no broker is
// needed.
func NewGoChannelBus(logger watermill.LoggerAdapter) EventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            1000,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	return NewWatermillEventBus(pubSub, pubSub)
}

// NewTestBus creates a small, blocking bus for deterministic tests.
func NewTestBus(logger watermill.LoggerAdapter) EventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            10,
			Persistent:                     true,
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)

	return NewWatermillEventBus(pubSub, pubSub)
}
