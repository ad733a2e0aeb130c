package framework

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

type postingRunner struct {
	msgs []Message
}

func (r *postingRunner) Run(ctx context.Context) error {
	ctl := LoopCtlFrom(ctx)
	for _, msg := range r.msgs {
		ctl.PostMessage(msg)
	}
	ctl.TriggerNext()
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopPriorityAndMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []int
	taken := make(chan []int, 1)
	loop := NewLoop()
	loop.Interval = time.Hour
	loop.AddRunnable(&postingRunner{msgs: []Message{&testMsg{1}, &testMsg{2}, &testMsg{3}}})
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		order = append(order, cc.PriorityLevel())
		var vals []int
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if m := mctx.CurrentMessage().(*testMsg); m.val != 2 {
				mctx.MessageTaken()
				vals = append(vals, m.val)
			}
		}))
		if len(vals) > 0 {
			taken <- vals
		}
		return nil
	}))
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		order = append(order, cc.PriorityLevel())
		return errors.New("logged only")
	}))
	var remains []int
	loop.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			remains = append(remains, mctx.CurrentMessage().(*testMsg).val)
			mctx.StopProcessing()
		}))
		return nil
	}))

	go loop.Run(ctx)
	select {
	case vals := <-taken:
		require.Equal(t, []int{1, 3}, vals)
	case <-time.After(5 * time.Second):
		t.Fatal("loop not triggered")
	}
	cancel()
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, []int{PrLvSense, PrLvControl}, order[:2])
	require.Equal(t, []int{2}, remains)
}

func TestLoopStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop()
	loop.Interval = time.Millisecond
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop not stopped")
	}
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Len(t, errs.Errors, 2)
	require.Equal(t, "2 errors: a; b", errs.Aggregate().Error())

	target := errors.New("target")
	var single AggregatedError
	err := single.Add(fmt.Errorf("send: %w", target)).Aggregate()
	require.Equal(t, "send: target", err.Error())
	require.True(t, errors.Is(err, target))
}

func TestRunnerCollectsErrors(t *testing.T) {
	failure := errors.New("link down")
	r := NewRunner().Go(
		RunFunc(func(ctx context.Context) error { return failure }),
		RunFunc(func(ctx context.Context) error { return context.Canceled }),
		RunFunc(func(ctx context.Context) error { return nil }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, failure))
	require.NoError(t, NewRunner().Wait())
}

func TestProcessMessagesAppendDuringProcessing(t *testing.T) {
	iter := &loopIteration{Loop: NewLoop()}
	iter.AddMessages(&testMsg{1}, &testMsg{2})
	iter.ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
		if mctx.CurrentMessage().(*testMsg).val == 1 {
			mctx.MessageTaken()
			mctx.AddMessages(&testMsg{10})
		}
	}))
	var vals []int
	iter.ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
		vals = append(vals, mctx.CurrentMessage().(*testMsg).val)
	}))
	require.Equal(t, []int{2, 10}, vals)
}
