// Package msgs defines the L1 messages of the encoder controller.
package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1/msgs"
)

// EncoderStatusQuery queries the current encoder status.
type EncoderStatusQuery struct {
}

// NewMessage implements Message.
func (m *EncoderStatusQuery) NewMessage() fx.Message { return &EncoderStatusQuery{} }

// TypeID implements SerializableMessage.
func (m *EncoderStatusQuery) TypeID() uint32 { return EncoderStatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *EncoderStatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *EncoderStatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EncoderStatusQuery) Reset() { *m = EncoderStatusQuery{} }

// String implements proto.Message.
func (m *EncoderStatusQuery) String() string { return proto.CompactTextString(m) }

// EncoderStatusReply is the response for EncoderStatusQuery.
type EncoderStatusReply struct {
	Status *EncoderStatus `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *EncoderStatusReply) NewMessage() fx.Message { return &EncoderStatusReply{} }

// TypeID implements SerializableMessage.
func (m *EncoderStatusReply) TypeID() uint32 { return EncoderStatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *EncoderStatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *EncoderStatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EncoderStatusReply) Reset() { *m = EncoderStatusReply{} }

// String implements proto.Message.
func (m *EncoderStatusReply) String() string { return proto.CompactTextString(m) }

// EncoderStatus is the event message reflecting the shaft position.
// Angles are in radians, velocity in rad/s.
type EncoderStatus struct {
	Angle           float64 `protobuf:"fixed64,1,opt,name=angle,proto3" json:"angle,omitempty"`
	Degrees         float64 `protobuf:"fixed64,2,opt,name=degrees,proto3" json:"degrees,omitempty"`
	SensorAngle     float64 `protobuf:"fixed64,3,opt,name=sensor_angle,json=sensorAngle,proto3" json:"sensor_angle,omitempty"`
	Velocity        float64 `protobuf:"fixed64,4,opt,name=velocity,proto3" json:"velocity,omitempty"`
	RawCount        uint32  `protobuf:"varint,5,opt,name=raw_count,json=rawCount,proto3" json:"raw_count,omitempty"`
	ZeroOffset      uint32  `protobuf:"varint,6,opt,name=zero_offset,json=zeroOffset,proto3" json:"zero_offset,omitempty"`
	Rotations       int64   `protobuf:"varint,7,opt,name=rotations,proto3" json:"rotations,omitempty"`
	Resolution      uint32  `protobuf:"varint,8,opt,name=resolution,proto3" json:"resolution,omitempty"`
	Reads           uint64  `protobuf:"varint,9,opt,name=reads,proto3" json:"reads,omitempty"`
	ParityErrors    uint64  `protobuf:"varint,10,opt,name=parity_errors,json=parityErrors,proto3" json:"parity_errors,omitempty"`
	TransportErrors uint64  `protobuf:"varint,11,opt,name=transport_errors,json=transportErrors,proto3" json:"transport_errors,omitempty"`
	Timestamp       int64   `protobuf:"varint,12,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements Message.
func (m *EncoderStatus) NewMessage() fx.Message { return &EncoderStatus{} }

// TypeID implements SerializableMessage.
func (m *EncoderStatus) TypeID() uint32 { return EncoderStatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *EncoderStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *EncoderStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EncoderStatus) Reset() { *m = EncoderStatus{} }

// String implements proto.Message.
func (m *EncoderStatus) String() string { return proto.CompactTextString(m) }

// EncoderZero sets the current shaft position as zero.
type EncoderZero struct {
	// Relative selects InitRelativeZero instead of InitAbsoluteZero.
	Relative bool `protobuf:"varint,1,opt,name=relative,proto3" json:"relative,omitempty"`
}

// NewMessage implements Message.
func (m *EncoderZero) NewMessage() fx.Message { return &EncoderZero{} }

// TypeID implements SerializableMessage.
func (m *EncoderZero) TypeID() uint32 { return EncoderZeroTypeID }

// Serializable implements SerializableMessage.
func (m *EncoderZero) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *EncoderZero) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EncoderZero) Reset() { *m = EncoderZero{} }

// String implements proto.Message.
func (m *EncoderZero) String() string { return proto.CompactTextString(m) }

// EncoderZeroReply is the response for EncoderZero.
type EncoderZeroReply struct {
	// Delta is the angle (rad) the zero moved by.
	Delta float64 `protobuf:"fixed64,1,opt,name=delta,proto3" json:"delta,omitempty"`
}

// NewMessage implements Message.
func (m *EncoderZeroReply) NewMessage() fx.Message { return &EncoderZeroReply{} }

// TypeID implements SerializableMessage.
func (m *EncoderZeroReply) TypeID() uint32 { return EncoderZeroReplyTypeID }

// Serializable implements SerializableMessage.
func (m *EncoderZeroReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *EncoderZeroReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EncoderZeroReply) Reset() { *m = EncoderZeroReply{} }

// String implements proto.Message.
func (m *EncoderZeroReply) String() string { return proto.CompactTextString(m) }

// ShaftDrive changes the speed of a simulated shaft.
type ShaftDrive struct {
	// Speed is the target speed in rad/s.
	Speed float64 `protobuf:"fixed64,1,opt,name=speed,proto3" json:"speed,omitempty"`
	// Accel in rad/s², 0 changes the speed immediately.
	Accel float64 `protobuf:"fixed64,2,opt,name=accel,proto3" json:"accel,omitempty"`
}

// NewMessage implements Message.
func (m *ShaftDrive) NewMessage() fx.Message { return &ShaftDrive{} }

// TypeID implements SerializableMessage.
func (m *ShaftDrive) TypeID() uint32 { return ShaftDriveTypeID }

// Serializable implements SerializableMessage.
func (m *ShaftDrive) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ShaftDrive) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ShaftDrive) Reset() { *m = ShaftDrive{} }

// String implements proto.Message.
func (m *ShaftDrive) String() string { return proto.CompactTextString(m) }

// GroupEncoder is the group of encoder messages.
const GroupEncoder = msgs.GroupSensor

// TypeIDs
const (
	EncoderStatusEventTypeID uint32 = GroupEncoder | msgs.TypeIDKindEvent | 0x0000
	EncoderStatusQueryTypeID uint32 = GroupEncoder | 0x0000
	EncoderStatusReplyTypeID uint32 = GroupEncoder | msgs.TypeIDMaskReply | 0x0000
	EncoderZeroTypeID        uint32 = GroupEncoder | 0x0001
	EncoderZeroReplyTypeID   uint32 = GroupEncoder | msgs.TypeIDMaskReply | 0x0001
	ShaftDriveTypeID         uint32 = GroupEncoder | 0x0100
)

func init() {
	msgs.RegisterTypes(
		(*EncoderStatus)(nil),
		(*EncoderStatusQuery)(nil),
		(*EncoderStatusReply)(nil),
		(*EncoderZero)(nil),
		(*EncoderZeroReply)(nil),
		(*ShaftDrive)(nil),
	)
}
