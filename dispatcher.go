package syncws

// eventDispatcher buffers the events produced by one Loop iteration. The
// client drains them while holding its loop lock and delivers them after
// releasing it, so callbacks may call Send or read client state.
type eventDispatcher struct {
	emitter *EventEmitterCallback[EventKind, Event]
	logger  logger

	pending []Event
	closed  bool
}

func newEventDispatcher(logger logger) *eventDispatcher {
	return &eventDispatcher{
		emitter: NewEventEmitter[EventKind, Event](),
		logger:  logger,
	}
}

// Bind routes every event kind to cb. A nil cb leaves events undelivered.
func (d *eventDispatcher) Bind(client *Client, cb Callback, userData any) {
	if cb == nil {
		return
	}
	forward := func(ev Event) {
		cb(client, ev, userData)
	}
	d.emitter.On(EventConnect, forward)
	d.emitter.On(EventText, forward)
	d.emitter.On(EventClose, forward)
}

// Push queues ev. Only the first Close event is kept; nothing is queued after it.
func (d *eventDispatcher) Push(ev Event) {
	if d.closed {
		d.logger.Debugf("dropping %s after close", ev)
		return
	}
	if ev.Kind == EventClose {
		d.closed = true
	}
	d.pending = append(d.pending, ev)
}

// CloseDispatched reports whether a Close event has been queued already.
func (d *eventDispatcher) CloseDispatched() bool {
	return d.closed
}

// Drain hands over the queued events.
func (d *eventDispatcher) Drain() []Event {
	events := d.pending
	d.pending = nil
	return events
}

// Deliver calls the bound callback once per event, in order.
func (d *eventDispatcher) Deliver(events []Event) {
	for _, ev := range events {
		d.logger.Debugf("dispatching %s", ev)
		d.emitter.Emit(ev.Kind, ev)
	}
}

// Release drops the callback.
func (d *eventDispatcher) Release() {
	d.pending = nil
	d.emitter.Close()
}
