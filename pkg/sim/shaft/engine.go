package shaft

import (
	"github.com/golang/glog"

	"github.com/robotalks/encoder.go/pkg/encoder/msgs"
	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	l1msgs "github.com/robotalks/encoder.go/pkg/l1/msgs"
)

// Engine drives a Shaft from L1 commands.
type Engine struct {
	Shaft *Shaft
}

// AddToLoop implements LoopAdder.
func (e *Engine) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, fx.ControlFunc(e.HandleCommand))
}

// HandleCommand is a controller processing ShaftDrive commands.
func (e *Engine) HandleCommand(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		if m, ok := cmdMsg.Command.Msg().(*msgs.ShaftDrive); ok {
			mctx.MessageTaken()
			e.Shaft.Drive(cc.Time(), m.Speed, m.Accel)
			glog.V(1).Infof("shaft: drive %.3f rad/s, accel %.3f rad/s²", m.Speed, m.Accel)
			if err := cmdMsg.Command.Done(l1msgs.NewCommandOK()); err != nil {
				glog.Warningf("shaft: reply: %v", err)
			}
		}
	}))
	return nil
}
