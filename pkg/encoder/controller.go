// Package encoder implements the L1 controller exposing a magnetic encoder:
// it samples the shaft angle in the control loop, answers status queries,
// executes zero commands and publishes status events.
package encoder

import (
	"context"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/spi"

	"github.com/robotalks/encoder.go/pkg/encoder/msgs"
	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	env "github.com/robotalks/encoder.go/pkg/l1/env/controller"
	l1msgs "github.com/robotalks/encoder.go/pkg/l1/msgs"
	"github.com/robotalks/encoder.go/pkg/sensor"
	"github.com/robotalks/encoder.go/pkg/sensor/magspi"
)

// Controller is the L1 controller of a magnetic encoder.
type Controller struct {
	Tracker         *magspi.Tracker
	Registrar       l1.Registrar
	PublishInterval time.Duration

	status        msgs.EncoderStatus
	statusChanged bool
	lastPublish   time.Time
	lastErr       error
}

// NewController creates a Controller publishing through the env.
func NewController(e *env.Env, tracker *magspi.Tracker) *Controller {
	c := &Controller{
		Tracker:         tracker,
		PublishInterval: defaultConfig.PublishInterval,
		statusChanged:   true,
	}
	if e != nil {
		c.Registrar = e.Registrar
	}
	return c
}

// Init initializes the tracker on the port, the current position becomes
// zero.
func (c *Controller) Init(port spi.Port) error {
	if err := c.Tracker.Init(port); err != nil {
		return err
	}
	c.updateStatus(time.Now())
	glog.Infof("encoder on %s: %d bits, zero at %d", port, c.Tracker.Config.Layout.Resolution, c.status.ZeroOffset)
	return nil
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(c)
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.Sense))
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.publishStatus))
}

// Run implements Runnable, it releases the bus when the loop stops.
func (c *Controller) Run(ctx context.Context) error {
	<-ctx.Done()
	if err := c.Tracker.Close(); err != nil {
		glog.Errorf("close encoder: %v", err)
	}
	return ctx.Err()
}

// Sense samples the encoder.
func (c *Controller) Sense(cc fx.ControlContext) error {
	_, err := c.Tracker.ReadVelocity()
	c.updateStatus(cc.Time())
	c.reportError(err)
	return nil
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		var reply fx.Message
		switch m := cmdMsg.Command.Msg().(type) {
		case *msgs.EncoderStatusQuery:
			status := c.status
			reply = &msgs.EncoderStatusReply{Status: &status}
		case *msgs.EncoderZero:
			reply = c.zero(cc, m)
		default:
			return
		}
		mctx.MessageTaken()
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Warningf("encoder reply: %v", err)
		}
	}))
	return nil
}

// Status returns the last sampled status.
func (c *Controller) Status() msgs.EncoderStatus {
	return c.status
}

func (c *Controller) zero(cc fx.ControlContext, msg *msgs.EncoderZero) fx.Message {
	// no index signal, a relative zero is the current position as well.
	delta, err := c.Tracker.Zero()
	if err != nil {
		return l1msgs.NewCommandErr(err)
	}
	glog.Infof("encoder zero (relative=%v) moved by %.3f degrees", msg.Relative, sensor.Angle(delta).Degrees())
	c.updateStatus(cc.Time())
	c.statusChanged = true
	return &msgs.EncoderZeroReply{Delta: delta}
}

func (c *Controller) updateStatus(now time.Time) {
	state, layout := c.Tracker.State(), c.Tracker.Config.Layout
	c.status = msgs.EncoderStatus{
		Angle:           state.Angle,
		Degrees:         sensor.Angle(state.Angle).Degrees(),
		SensorAngle:     layout.Radians(state.RawCount - state.ZeroOffset),
		Velocity:        state.Velocity,
		RawCount:        uint32(state.RawCount),
		ZeroOffset:      uint32(state.ZeroOffset),
		Rotations:       state.Rotations,
		Resolution:      uint32(layout.Resolution),
		Reads:           state.Stats.Reads,
		ParityErrors:    state.Stats.ParityErrors,
		TransportErrors: state.Stats.TransportErrors,
		Timestamp:       now.UnixNano() / int64(time.Microsecond),
	}
}

// reportError logs the first of a series of identical errors.
func (c *Controller) reportError(err error) {
	if err == nil {
		if c.lastErr != nil {
			glog.Info("encoder recovered")
		}
		c.lastErr = nil
		return
	}
	if c.lastErr == nil || c.lastErr.Error() != err.Error() {
		glog.Warningf("encoder read: %v", err)
	}
	c.lastErr = err
}

func (c *Controller) publishStatus(cc fx.ControlContext) error {
	now := cc.Time()
	if !c.statusChanged && now.Sub(c.lastPublish) < c.PublishInterval {
		return nil
	}
	c.statusChanged, c.lastPublish = false, now
	if c.Registrar == nil {
		return nil
	}
	status := c.status
	return c.Registrar.SendEvent(cc.Context(), &status)
}
