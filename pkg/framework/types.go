package framework

import (
	"context"
	"time"
)

// Runnable is a background task living as long as the context.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is anything exchanged between components of a loop, usually a
// typed L1 message.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is invoked once per iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// ControlContext is the state of the current iteration.
type ControlContext interface {
	// Context carries the LoopControl of the iteration.
	Context() context.Context
	// Time is when the iteration started, shared by all controllers.
	Time() time.Time
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Messages are the ones posted before the iteration started, plus
	// the ones added by controllers of higher priority.
	Messages() MessageStore

	LoopControl
}

// PriorityLevels is the total levels of priorities, 0 runs first.
const PriorityLevels int = 16

// Priority levels used by the encoder stack. Sensors are sampled before
// commands are handled, so replies carry the fresh reading.
const (
	PrLvSense    int = 4
	PrLvControl  int = 8
	PrLvPostProc int = PriorityLevels - 2
	PrLvIdle     int = PriorityLevels - 1
)

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration right after the current
	// one, without waiting for the interval.
	TriggerNext()
}

// MessageStore provides read/write access to a list of messages.
type MessageStore interface {
	// ProcessMessages visits messages in order.
	ProcessMessages(MessageProcessor)

	MessageAppender
}

// MessageAppender appends messages to the current iteration, visible to
// controllers of lower priority.
type MessageAppender interface {
	AddMessages(msgs ...Message)
}

// MessageProcessor is used by MessageStore to process messages.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext provides context for current message.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages, they stay in the store.
	StopProcessing()

	MessageAppender
}
