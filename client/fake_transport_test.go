package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// fakeConn is a scriptable in-memory connection. Frames pushed with push
// arrive in order from ReadMessage; fail ends the read stream with io.EOF.
type fakeConn struct {
	frames chan []byte
	closed chan struct{}
	writes chan []byte

	mu        sync.Mutex
	pings     int
	closeOnce sync.Once
	failOnce  sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 64),
		closed: make(chan struct{}),
		writes: make(chan []byte, 64),
	}
}

func (f *fakeConn) push(frame string) {
	f.frames <- []byte(frame)
}

// fail simulates the peer dropping the connection after all pushed frames
// have been read
func (f *fakeConn) fail() {
	f.failOnce.Do(func() { close(f.frames) })
}

func (f *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case <-f.closed:
		return nil, net.ErrClosed
	default:
	}
	select {
	case frame, ok := <-f.frames:
		if !ok {
			return nil, io.EOF
		}
		return frame, nil
	case <-f.closed:
		return nil, net.ErrClosed
	}
}

func (f *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-f.closed:
		return net.ErrClosed
	default:
	}
	f.writes <- data
	return nil
}

func (f *fakeConn) Ping(_ time.Time) error {
	select {
	case <-f.closed:
		return net.ErrClosed
	default:
	}
	f.mu.Lock()
	f.pings++
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

// fakeDialer scripts dial outcomes per attempt and records every dial
type fakeDialer struct {
	mu    sync.Mutex
	dials int
	urls  []string
	// script decides the outcome for the nth dial (1-based); a nil script
	// always succeeds with a fresh conn
	script func(attempt int) (*fakeConn, error)
	conns  chan *fakeConn
}

func newFakeDialer(script func(attempt int) (*fakeConn, error)) *fakeDialer {
	return &fakeDialer{
		script: script,
		conns:  make(chan *fakeConn, 16),
	}
}

func alwaysFail(attempt int) (*fakeConn, error) {
	return nil, fmt.Errorf("dial refused (attempt %d)", attempt)
}

func (d *fakeDialer) DialContext(_ context.Context, rawURL string) (Conn, error) {
	d.mu.Lock()
	d.dials++
	d.urls = append(d.urls, rawURL)
	attempt := d.dials
	d.mu.Unlock()

	if d.script != nil {
		conn, err := d.script(attempt)
		if err != nil {
			return nil, err
		}
		d.conns <- conn
		return conn, nil
	}

	conn := newFakeConn()
	d.conns <- conn
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) dialedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}
