package events

import (
	"sync"
)

const clientBuffer = 16

// Client delivers events over a channel until it is canceled.
type Client struct {
	Events     <-chan Event
	Id         uint32
	events     chan Event
	cancelChan chan struct{}
	cancelOnce sync.Once
	bridge     *Bridge
	ref        HandlerRef
}

// Subscribe registers a channel backed handler. A client that stops reading
// holds up the worker until it is canceled or the bridge is stopped, in
// which case the pending event is dropped.
func (b *Bridge) Subscribe() *Client {
	events := make(chan Event, clientBuffer)

	client := &Client{
		Events:     events,
		events:     events,
		cancelChan: make(chan struct{}),
		bridge:     b,
	}

	// the handler is never nil, so registration cannot fail
	ref, _ := b.AddEventHandler(client.deliver, nil)

	client.ref = ref
	client.Id = uint32(ref)

	return client
}

func (c *Client) deliver(event Event, _ interface{}) {
	select {
	case c.events <- event:
	case <-c.cancelChan:
	case <-c.bridge.stopping():
	}
}

// Cancel unregisters the client. The Events channel is not closed, so
// readers select on their own done signal.
func (c *Client) Cancel() {
	c.cancelOnce.Do(func() {
		close(c.cancelChan)

		if err := c.bridge.RemoveEventHandler(c.ref); err != nil {
			c.bridge.log.Warnf("Could not remove event client %d: %v", c.Id, err)
		}
	})
}

// Done is closed once the client is canceled.
func (c *Client) Done() <-chan struct{} {
	return c.cancelChan
}
