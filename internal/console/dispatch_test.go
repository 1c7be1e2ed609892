// File: internal/console/dispatch_test.go
package console

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher(t *testing.T) {
	t.Run("should route an action to its handler", func(t *testing.T) {
		d := NewDispatcher()
		var got Payload
		d.Register(ActionHostSelect, func(ctx context.Context, p Payload) error {
			got = p
			return nil
		})

		err := d.Dispatch(context.Background(), ActionHostSelect, Payload{"host_id": 7})
		require.NoError(t, err)
		id, ok := got.Int("host_id")
		require.True(t, ok)
		assert.Equal(t, 7, id)
	})

	t.Run("should fail on an unregistered action", func(t *testing.T) {
		d := NewDispatcher()
		err := d.Dispatch(context.Background(), Action("nope"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no handler registered")
	})

	t.Run("should propagate handler errors", func(t *testing.T) {
		d := NewDispatcher()
		boom := errors.New("boom")
		d.Register(ActionJobStop, func(context.Context, Payload) error { return boom })

		err := d.Dispatch(context.Background(), ActionJobStop, nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("re-registering replaces the previous handler", func(t *testing.T) {
		d := NewDispatcher()
		d.Register(ActionSchedulerRun, func(context.Context, Payload) error { return errors.New("old") })
		d.Register(ActionSchedulerRun, func(context.Context, Payload) error { return nil })

		assert.NoError(t, d.Dispatch(context.Background(), ActionSchedulerRun, nil))
		assert.Len(t, d.Actions(), 1)
	})
}

func TestPayloadAccessors(t *testing.T) {
	p := Payload{
		"int_id":   3,
		"float_id": float64(12), // JSON decoding yields float64 for numbers
		"flag":     true,
		"name":     "alpha",
	}

	t.Run("Int handles both native ints and JSON numbers", func(t *testing.T) {
		v, ok := p.Int("int_id")
		require.True(t, ok)
		assert.Equal(t, 3, v)

		v, ok = p.Int("float_id")
		require.True(t, ok)
		assert.Equal(t, 12, v)

		_, ok = p.Int("name")
		assert.False(t, ok)
		_, ok = p.Int("missing")
		assert.False(t, ok)
	})

	t.Run("Bool and String default on absence", func(t *testing.T) {
		assert.True(t, p.Bool("flag"))
		assert.False(t, p.Bool("missing"))
		assert.Equal(t, "alpha", p.String("name"))
		assert.Equal(t, "", p.String("missing"))
	})
}
