package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoSubscribers        = errors.New("eventbus: no matching subscribers")
	ErrInvalidHandlerReturn = errors.New("eventbus: invalid handler return signature")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Bus dispatches an event value to every subscribed func whose single
// parameter accepts it. Handlers may return nothing or an error.
type Bus struct {
	mu       sync.RWMutex
	log      *logrus.Entry
	nextID   int
	handlers map[int]reflect.Value
	order    []int
}

func New(log *logrus.Entry) *Bus {
	return &Bus{log: log, handlers: map[int]reflect.Value{}}
}

// Accepts reports whether handler can receive event.
func Accepts(handler, event any) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 1 {
		return false
	}
	param := t.In(0)
	if event == nil {
		return param.Kind() == reflect.Interface || param.Kind() == reflect.Ptr
	}
	return reflect.TypeOf(event).AssignableTo(param)
}

// Subscribe registers handler and returns a func removing it.
func (b *Bus) Subscribe(handler any) func() {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 1 {
		panic("eventbus: handler must be a func with one parameter")
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = reflect.ValueOf(handler)
	b.order = append(b.order, id)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

func (b *Bus) SubscribersCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

func (b *Bus) matching(event any) []reflect.Value {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []reflect.Value
	for _, id := range b.order {
		h := b.handlers[id]
		if Accepts(h.Interface(), event) {
			out = append(out, h)
		}
	}
	return out
}

func argOf(h reflect.Value, event any) reflect.Value {
	if event == nil {
		return reflect.Zero(h.Type().In(0))
	}
	return reflect.ValueOf(event)
}

// Publish delivers event and logs handler errors and panics.
func (b *Bus) Publish(event any) {
	if err := b.PublishE(event); err != nil && b.log != nil {
		if errors.Is(err, ErrNoSubscribers) {
			b.log.WithField("event", fmt.Sprintf("%T", event)).Debug("eventbus.Publish: no matching subscribers")
			return
		}
		b.log.WithError(err).WithField("event", fmt.Sprintf("%T", event)).Warn("eventbus.Publish: handler failed")
	}
}

// PublishE delivers event and joins every handler error.
func (b *Bus) PublishE(event any) error {
	handlers := b.matching(event)
	if len(handlers) == 0 {
		return ErrNoSubscribers
	}
	var errs []error
	for _, h := range handlers {
		if err := call(h, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func call(h reflect.Value, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("eventbus: handler %s panicked: %v", h.Type(), r)
		}
	}()
	out := h.Call([]reflect.Value{argOf(h, event)})
	switch {
	case len(out) == 0:
		return nil
	case len(out) == 1 && out[0].Type() == errorType:
		if out[0].IsNil() {
			return nil
		}
		return out[0].Interface().(error)
	}
	return fmt.Errorf("%w: handler %s", ErrInvalidHandlerReturn, h.Type())
}
