package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sorchess/Picaton-sub002/internal/logging"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(logging.NewNop(), nil)
}

func TestDispatcherRoutesByType(t *testing.T) {
	d := newTestDispatcher()

	var got []string
	d.On("typing", func(raw []byte) { got = append(got, string(raw)) })

	d.Dispatch([]byte(`{"type":"typing","user_id":"u1"}`))
	d.Dispatch([]byte(`{"type":"new_message","message":{}}`))

	assert.Equal(t, []string{`{"type":"typing","user_id":"u1"}`}, got)
}

func TestDispatcherInvokesHandlersInRegistrationOrder(t *testing.T) {
	d := newTestDispatcher()

	var order []int
	d.On("typing", func([]byte) { order = append(order, 1) })
	d.On("typing", func([]byte) { order = append(order, 2) })
	d.On("typing", func([]byte) { order = append(order, 3) })

	d.Dispatch([]byte(`{"type":"typing"}`))

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := newTestDispatcher()

	var calls int
	off := d.On("typing", func([]byte) { calls++ })

	d.Dispatch([]byte(`{"type":"typing"}`))
	off()
	d.Dispatch([]byte(`{"type":"typing"}`))

	assert.Equal(t, 1, calls)
}

func TestDispatcherPanickingHandlerDoesNotStopSiblings(t *testing.T) {
	d := newTestDispatcher()

	var after bool
	d.On("typing", func([]byte) { panic("boom") })
	d.On("typing", func([]byte) { after = true })

	assert.NotPanics(t, func() {
		d.Dispatch([]byte(`{"type":"typing"}`))
	})
	assert.True(t, after)
}

func TestDispatcherDropsMalformedJSON(t *testing.T) {
	d := newTestDispatcher()

	var calls int
	d.On("typing", func([]byte) { calls++ })

	assert.NotPanics(t, func() {
		d.Dispatch([]byte(`{not json`))
		d.Dispatch([]byte(``))
		d.Dispatch([]byte(`{"no_type_field":true}`))
	})
	assert.Zero(t, calls)
}

func TestDispatcherIgnoresUnknownTypes(t *testing.T) {
	d := newTestDispatcher()

	var calls int
	d.On("typing", func([]byte) { calls++ })

	assert.NotPanics(t, func() {
		d.Dispatch([]byte(`{"type":"brand_new_feature"}`))
	})
	assert.Zero(t, calls)
}

func TestDispatcherInterceptsPong(t *testing.T) {
	d := newTestDispatcher()

	var calls int
	d.On("pong", func([]byte) { calls++ })

	d.Dispatch([]byte(`{"type":"pong"}`))

	assert.Zero(t, calls, "pong must never reach registered handlers")
}
