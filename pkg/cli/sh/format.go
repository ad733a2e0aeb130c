package sh

import (
	"encoding/json"
	"reflect"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/msgs"
)

// Formatter renders a message for display, ok is false if the message is
// not recognized.
type Formatter func(msg fx.Message) (out string, ok bool)

var formatters []Formatter

// AddFormatters is used by command providers during init.
func AddFormatters(fns ...Formatter) {
	formatters = append(formatters, fns...)
}

// FormatResult renders a command result or an event using the registered
// formatters, or the message name and its text form.
func FormatResult(msg fx.Message) string {
	if _, ok := msg.(*msgs.CommandOK); ok {
		return "OK"
	}
	for _, fn := range formatters {
		if out, ok := fn(msg); ok {
			return out
		}
	}
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	if s, ok := msg.(msgs.SerializableMessage); ok {
		return name + " " + s.Serializable().String()
	}
	return name
}

// FormatJSON renders the serializable form of msg as JSON.
func FormatJSON(msg fx.Message) (string, error) {
	var v interface{} = msg
	if s, ok := msg.(msgs.SerializableMessage); ok {
		v = s.Serializable()
	}
	out, err := json.Marshal(v)
	return string(out), err
}

// FormatInfo renders a discovered controller, labels are left out.
func FormatInfo(info l1.ControllerInfo) string {
	if info.Meta.Description == "" {
		return info.Ref.Name()
	}
	return info.Ref.Name() + ": " + info.Meta.Description
}
