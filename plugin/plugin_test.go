package plugin

import (
	"errors"
	"net/rpc"
	"testing"

	goplugin "github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeveci/strqueue/harness"
	"github.com/reeveci/strqueue/queue"
)

// drivers returns an in-process driver and an RPC client for a second one.
func drivers(t *testing.T) map[string]Driver {
	t.Helper()

	local := NewLocal(nil)
	t.Cleanup(func() {
		assert.NoError(t, local.Close(), "Close()")
	})

	client, _ := goplugin.TestPluginRPCConn(t, map[string]goplugin.Plugin{
		"driver": &DriverPlugin{Impl: NewLocal(nil)},
	}, nil)
	t.Cleanup(func() { client.Close() })

	raw, err := client.Dispense("driver")
	require.NoError(t, err, "Dispense()")
	remote, ok := raw.(Driver)
	require.Truef(t, ok, "dispensed %T is not a Driver", raw)

	return map[string]Driver{"local": local, "rpc": remote}
}

func TestDriverScenario(t *testing.T) {
	for name, d := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			h, err := d.New()
			require.NoError(t, err, "New()")
			require.NotZero(t, h)

			for _, v := range []string{"a", "b", "c"} {
				require.NoErrorf(t, d.InsertTail(h, v), "InsertTail(%q)", v)
			}
			values, err := d.Values(h)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, values)

			require.NoError(t, d.Reverse(h))
			values, err = d.Values(h)
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "b", "a"}, values)

			require.NoError(t, d.Sort(h))
			got, err := d.RemoveHead(h, 1024)
			require.NoError(t, err)
			assert.Equal(t, "a", got)

			size, err := d.Size(h)
			require.NoError(t, err)
			assert.Equal(t, 2, size)
			require.NoError(t, d.Check(h))

			require.NoError(t, d.InsertHead(h, "hello"))
			got, err = d.RemoveHead(h, 3)
			require.NoError(t, err)
			assert.Equal(t, "he", got, "truncated RemoveHead()")

			got, err = d.RemoveHead(h, -1)
			require.NoError(t, err)
			assert.Empty(t, got, "RemoveHead() without buffer")

			require.NoError(t, d.Free(h))
			stats, err := d.Stats()
			require.NoError(t, err)
			assert.Zero(t, stats.Blocks(), "live blocks after Free()")
		})
	}
}

func TestDriverErrors(t *testing.T) {
	for name, d := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			var absent Handle
			assert.ErrorIs(t, d.InsertHead(absent, "x"), queue.ErrInvalidQueue)
			assert.ErrorIs(t, d.InsertTail(Handle(42), "x"), queue.ErrInvalidQueue)
			_, err := d.RemoveHead(absent, 8)
			assert.ErrorIs(t, err, queue.ErrInvalidQueue)
			size, err := d.Size(absent)
			require.NoError(t, err)
			assert.Zero(t, size)
			assert.NoError(t, d.Reverse(absent))
			assert.NoError(t, d.Sort(absent))
			assert.NoError(t, d.Free(absent))

			h, err := d.New()
			require.NoError(t, err)
			_, err = d.RemoveHead(h, 8)
			assert.ErrorIs(t, err, queue.ErrEmptyQueue)

			require.NoError(t, d.Configure(map[string]string{SETTING_FAIL: "100"}))
			stats, err := d.Stats()
			require.NoError(t, err)
			assert.Equal(t, 100, stats.FailPercent)
			err = d.InsertTail(h, "x")
			assert.ErrorIs(t, err, queue.ErrAllocation)
			require.NoError(t, d.Configure(map[string]string{SETTING_FAIL: "0"}))
			require.NoError(t, d.InsertTail(h, "x"))

			assert.Error(t, d.Configure(map[string]string{SETTING_FAIL: "101"}))
			assert.Error(t, d.Configure(map[string]string{"unknown": "1"}))

			stats, err = d.Stats()
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Refused)
			assert.Zero(t, stats.FailPercent)
			assert.Equal(t, 1, stats.Elements)

			_, err = d.RemoveHead(h, 9000000000000000000)
			assert.ErrorContains(t, err, "buffer size")
			size, err = d.Size(h)
			require.NoError(t, err)
			assert.Equal(t, 1, size, "oversized RemoveHead() changed the queue")

			require.NoError(t, d.Free(h))
			_, err = d.Values(h)
			assert.ErrorIs(t, err, queue.ErrInvalidQueue)
		})
	}
}

func TestRemoteError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{in: nil, want: nil},
		{in: rpc.ServerError("queue is empty"), want: queue.ErrEmptyQueue},
		{in: rpc.ServerError("allocation failed: element: " + harness.ErrInjected.Error()), want: queue.ErrAllocation},
		{in: rpc.ServerError("something else")},
	}

	for _, tt := range tests {
		got := remoteError(tt.in)
		if tt.in == nil {
			assert.NoError(t, got)
			continue
		}
		require.Error(t, got)
		assert.Equal(t, tt.in.Error(), got.Error())
		if tt.want != nil {
			assert.ErrorIs(t, got, tt.want)
		} else {
			for _, sentinel := range remoteSentinels {
				assert.False(t, errors.Is(got, sentinel), "%q matched %q", got, sentinel)
			}
		}
	}
}
