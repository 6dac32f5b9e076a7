package syncws

type (
	// Callback receives every event of a Client, on the goroutine running
	// Loop. userData is the value given to Init. It may call Send but must not
	// call Loop or Drop on the same Client.
	Callback func(c *Client, ev Event, userData any)

	// EventSink is the per-variant form of Callback.
	EventSink interface {
		// OnConnect is called once the upgrade completed. payload is nil
		// unless the server sent a body with the upgrade response.
		OnConnect(c *Client, payload []byte)
		// OnText is called once per complete text message.
		OnText(c *Client, text string)
		// OnClose is called once, when the connection is gone.
		OnClose(c *Client, reason CloseReason, code CloseCode)
	}
)

// SinkCallback adapts an EventSink to a Callback.
func SinkCallback(sink EventSink) Callback {
	return func(c *Client, ev Event, _ any) {
		switch ev.Kind {
		case EventConnect:
			sink.OnConnect(c, ev.Payload)
		case EventText:
			sink.OnText(c, ev.Text)
		case EventClose:
			sink.OnClose(c, ev.Reason, ev.Code)
		}
	}
}
