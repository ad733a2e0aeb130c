package mqtt

import (
	"context"
	"encoding/json"
	"time"

	fx "github.com/robotalks/encoder.go/pkg/framework"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/comm"
)

// Registrar implements l1.Registrar using MQTT. The controller announces
// itself with a retained meta topic, which the broker clears through the
// will message when the controller drops off.
type Registrar struct {
	Queue *Queue
	Info  l1.ControllerInfo

	meta      []byte
	metaTopic string
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := ControllerTopic(info.Ref, TopicMeta)
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("l1:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:     NewQueue(opts, topicPrefix),
		Info:      info,
		meta:      meta,
		metaTopic: metaTopic,
	}
	r.Queue.OnConnect = r.announce
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForController(info.Ref))
	return r, nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable. The meta topic is cleared on a clean shutdown.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(r.metaTopic, nil, 1, true).WaitTimeout(time.Second)
	return r.Queue.Close()
}

func (r *Registrar) announce(q *Queue) {
	q.PubWith(r.metaTopic, r.meta, 1, true)
}
