// Package l1 defines how an L1 controller, like the encoder daemon, talks to
// L2 clients: controllers register through a Registrar and receive commands
// as loop messages, clients reach them through a Connector.
package l1

import (
	"context"
	"fmt"
	"strings"

	fx "github.com/robotalks/encoder.go/pkg/framework"
)

// Registrar publishes a controller. Received commands are posted to the
// loop wrapped in CommandMsg.
type Registrar interface {
	// SendEvent sends an event to every connected client.
	SendEvent(context.Context, fx.Message) error
}

// Command is a received command waiting for its reply.
type Command interface {
	Msg() fx.Message
	// Done sends the reply, CommandOK, CommandErr or a typed reply.
	Done(fx.Message) error
}

// CommandMsg carries a Command through the loop.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// ControllerRef names a controller as type/id, e.g. encoder/3c1f09a2.
type ControllerRef struct {
	Type string
	ID   string
}

// ParseControllerRef parses the type/id form, a trailing topic suffix like
// encoder/3c1f09a2/msg is ignored.
func ParseControllerRef(s string) (ControllerRef, error) {
	items := strings.SplitN(s, "/", 3)
	if len(items) < 2 || items[0] == "" || items[1] == "" {
		return ControllerRef{}, fmt.Errorf("invalid controller %q, expect type/id", s)
	}
	return ControllerRef{Type: items[0], ID: items[1]}, nil
}

// Name is the type/id form.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates ControllerRef is valid.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is announced with the controller. Labels carry details
// like the sensor preset.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo is what discovery returns.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Connector is used by L2 clients to reach controllers.
type Connector interface {
	// Discover enumerates registered controllers.
	Discover(context.Context) ([]ControllerInfo, error)
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is the client end of a connection. Events from the
// controller are posted to the loop it's added to.
type ControllerConn interface {
	DoCommand(fx.Message) CommandFuture
}

// Result is the reply of a command. Err is set for CommandErr replies and
// transport failures.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture delivers exactly one Result.
type CommandFuture interface {
	ResultChan() <-chan Result
}
