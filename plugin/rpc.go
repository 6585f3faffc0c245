package plugin

import (
	"fmt"
	"net/rpc"
	"strings"

	goplugin "github.com/hashicorp/go-plugin"

	"github.com/reeveci/strqueue/harness"
	"github.com/reeveci/strqueue/queue"
)

type InsertArgs struct {
	Handle Handle
	Value  string
}

type RemoveArgs struct {
	Handle  Handle
	BufSize int
}

type DriverClient struct {
	client *rpc.Client
}

func (d *DriverClient) New() (resp Handle, err error) {
	err = remoteError(d.client.Call("Plugin.New", new(interface{}), &resp))
	return
}

func (d *DriverClient) Free(h Handle) error {
	return remoteError(d.client.Call("Plugin.Free", h, new(interface{})))
}

func (d *DriverClient) InsertHead(h Handle, value string) error {
	return remoteError(d.client.Call("Plugin.InsertHead", InsertArgs{Handle: h, Value: value}, new(interface{})))
}

func (d *DriverClient) InsertTail(h Handle, value string) error {
	return remoteError(d.client.Call("Plugin.InsertTail", InsertArgs{Handle: h, Value: value}, new(interface{})))
}

func (d *DriverClient) RemoveHead(h Handle, bufsize int) (resp string, err error) {
	err = remoteError(d.client.Call("Plugin.RemoveHead", RemoveArgs{Handle: h, BufSize: bufsize}, &resp))
	return
}

func (d *DriverClient) Size(h Handle) (resp int, err error) {
	err = remoteError(d.client.Call("Plugin.Size", h, &resp))
	return
}

func (d *DriverClient) Reverse(h Handle) error {
	return remoteError(d.client.Call("Plugin.Reverse", h, new(interface{})))
}

func (d *DriverClient) Sort(h Handle) error {
	return remoteError(d.client.Call("Plugin.Sort", h, new(interface{})))
}

func (d *DriverClient) Values(h Handle) (resp []string, err error) {
	err = remoteError(d.client.Call("Plugin.Values", h, &resp))
	if err == nil && resp == nil {
		// gob does not transmit empty slices
		resp = []string{}
	}
	return
}

func (d *DriverClient) Check(h Handle) error {
	return remoteError(d.client.Call("Plugin.Check", h, new(interface{})))
}

func (d *DriverClient) Configure(settings map[string]string) error {
	return remoteError(d.client.Call("Plugin.Configure", settings, new(interface{})))
}

func (d *DriverClient) Stats() (resp harness.Stats, err error) {
	err = remoteError(d.client.Call("Plugin.Stats", new(interface{}), &resp))
	return
}

func (d *DriverClient) Close() error {
	return d.client.Close()
}

var _ Driver = (*DriverClient)(nil)

var remoteSentinels = []queue.Error{
	queue.ErrInvalidQueue,
	queue.ErrAllocation,
	queue.ErrEmptyQueue,
	queue.ErrCorrupt,
}

// remoteError restores queue sentinels from the error strings net/rpc
// transmits, so that errors.Is keeps working across the plugin boundary.
func remoteError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	for _, sentinel := range remoteSentinels {
		if msg == sentinel.Error() {
			return sentinel
		}
		if detail, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return fmt.Errorf("%w: %s", sentinel, detail)
		}
	}
	return err
}

type DriverServer struct {
	impl Driver
}

func (d *DriverServer) New(args *interface{}, resp *Handle) (err error) {
	*resp, err = d.impl.New()
	return
}

func (d *DriverServer) Free(args Handle, resp *interface{}) error {
	return d.impl.Free(args)
}

func (d *DriverServer) InsertHead(args InsertArgs, resp *interface{}) error {
	return d.impl.InsertHead(args.Handle, args.Value)
}

func (d *DriverServer) InsertTail(args InsertArgs, resp *interface{}) error {
	return d.impl.InsertTail(args.Handle, args.Value)
}

func (d *DriverServer) RemoveHead(args RemoveArgs, resp *string) (err error) {
	*resp, err = d.impl.RemoveHead(args.Handle, args.BufSize)
	return
}

func (d *DriverServer) Size(args Handle, resp *int) (err error) {
	*resp, err = d.impl.Size(args)
	return
}

func (d *DriverServer) Reverse(args Handle, resp *interface{}) error {
	return d.impl.Reverse(args)
}

func (d *DriverServer) Sort(args Handle, resp *interface{}) error {
	return d.impl.Sort(args)
}

func (d *DriverServer) Values(args Handle, resp *[]string) (err error) {
	*resp, err = d.impl.Values(args)
	return
}

func (d *DriverServer) Check(args Handle, resp *interface{}) error {
	return d.impl.Check(args)
}

func (d *DriverServer) Configure(args map[string]string, resp *interface{}) error {
	return d.impl.Configure(args)
}

func (d *DriverServer) Stats(args *interface{}, resp *harness.Stats) (err error) {
	*resp, err = d.impl.Stats()
	return
}

type DriverPlugin struct {
	Impl Driver
}

func (p *DriverPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &DriverServer{impl: p.Impl}, nil
}

func (DriverPlugin) Client(b *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &DriverClient{client: c}, nil
}
