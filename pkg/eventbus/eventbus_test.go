package eventbus

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type spaceCreated struct{ xid string }

type batchFailed struct{ index int }

type labelled interface{ label() string }

func (s *spaceCreated) label() string { return s.xid }

func TestBus_DeliversToMatchingHandlers(t *testing.T) {
	bus := New(nil)
	var got []string
	bus.Subscribe(func(e *spaceCreated) { got = append(got, "typed:"+e.xid) })
	bus.Subscribe(func(e labelled) { got = append(got, "iface:"+e.label()) })
	bus.Subscribe(func(e *batchFailed) { t.Error("should not be called") })

	bus.Publish(&spaceCreated{xid: "281"})
	require.Equal(t, []string{"typed:281", "iface:281"}, got)
}

func TestBus_PublishE(t *testing.T) {
	bus := New(nil)
	require.ErrorIs(t, bus.PublishE(&batchFailed{}), ErrNoSubscribers)

	boom := errors.New("boom")
	bus.Subscribe(func(*batchFailed) error { return boom })
	bus.Subscribe(func(*batchFailed) { panic("kaput") })
	bus.Subscribe(func(*batchFailed) (int, error) { return 0, nil })

	err := bus.PublishE(&batchFailed{index: 1})
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, ErrInvalidHandlerReturn)
	require.ErrorContains(t, err, "kaput")
}

func TestBus_PublishLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.WarnLevel)

	bus := New(logrus.NewEntry(log))
	bus.Subscribe(func(*batchFailed) error { return errors.New("sink down") })
	bus.Publish(&batchFailed{})
	require.Contains(t, buf.String(), "eventbus.Publish: handler failed")
	require.Contains(t, buf.String(), "sink down")
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New(nil)
	calls := 0
	stop := bus.Subscribe(func(*spaceCreated) { calls++ })
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Publish(&spaceCreated{})
	stop()
	bus.Publish(&spaceCreated{})
	require.Equal(t, 1, calls)
	require.Equal(t, 0, bus.SubscribersCount())
}

func TestAccepts(t *testing.T) {
	require.True(t, Accepts(func(*spaceCreated) {}, &spaceCreated{}))
	require.False(t, Accepts(func(*spaceCreated) {}, &batchFailed{}))
	require.False(t, Accepts(func(a, b *spaceCreated) {}, &spaceCreated{}))
	require.True(t, Accepts(func(labelled) {}, nil))
	require.False(t, Accepts("not a func", &spaceCreated{}))
}
