package syncws

// closedStream replaces the real stream once a Client has been dropped.
type closedStream struct{}

func (closedStream) ReadAvailable([]byte) (int, error) { return 0, ErrStreamClosed }

func (closedStream) Write([]byte) (int, error) { return 0, ErrStreamClosed }

func (closedStream) Close() error { return nil }
