// Package udpwire is the concrete datagram transport adapter of §1's
// "deliberately out of scope" list: a UDP net.PacketConn-based sender
// and receive loop that turns inbound datagrams into Listener
// callbacks and transport faults into TransportUp/TransportDown.
package udpwire

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/message"
	"github.com/webitel/genisys-master/internal/genisys/wire"
)

// Listener is the subset of driver.Driver the transport depends on;
// declared locally so this package never imports driver (§9 "no
// internal cyclic references" generalized to the transport boundary).
type Listener interface {
	OnDatagram(data []byte)
	OnTransportUp()
	OnTransportDown(cause error)
}

// maxDatagramSize is larger than any GENISYS frame can legally be
// (framing + escaped payload + CRC), chosen to avoid UDP fragmentation
// surprises on a typical wayside LAN MTU.
const maxDatagramSize = 2048

// Transport binds one UDP socket and fans inbound datagrams out to a
// Listener while exposing Send for the executor's outbound path.
type Transport struct {
	conn    *net.UDPConn
	remotes map[genisys.Station]*net.UDPAddr
	codec   wire.PayloadCodec
	onError func(station genisys.Station, err error)

	mu       sync.Mutex
	closed   bool
	readErr  chan struct{}
	listener Listener
}

// New binds a UDP socket at localAddr and configures the per-station
// remote addresses the executor's sends are routed to.
func New(localAddr string, remotes map[genisys.Station]*net.UDPAddr, codec wire.PayloadCodec, onError func(genisys.Station, error)) (*Transport, error) {
	addr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("udpwire: resolve local address: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udpwire: listen: %w", err)
	}
	return &Transport{
		conn:    conn,
		remotes: remotes,
		codec:   codec,
		onError: onError,
		readErr: make(chan struct{}),
	}, nil
}

// Send implements executor.Sender: encode the request and write it to
// the station's configured remote address. A write error that isn't
// net.ErrClosed is also raised as TransportDown, the same as a read
// error in Serve (§9: any Read/Write fault is a transport fault).
func (t *Transport) Send(req message.Request) error {
	remote, ok := t.remotes[req.Station]
	if !ok {
		return fmt.Errorf("udpwire: no remote address configured for %s", req.Station)
	}
	data := wire.EncodeRequest(req, t.codec)
	_, err := t.conn.WriteToUDP(data, remote)
	if err != nil {
		if t.onError != nil {
			t.onError(req.Station, err)
		}
		if !errors.Is(err, net.ErrClosed) {
			if listener := t.currentListener(); listener != nil {
				listener.OnTransportDown(err)
			}
		}
	}
	return err
}

func (t *Transport) currentListener() Listener {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listener
}

// Serve runs the receive loop until Close is called, delivering
// decoded datagrams and transport lifecycle transitions to listener.
// It signals TransportUp immediately since a bound, listening socket
// is considered up from the moment Serve starts.
func (t *Transport) Serve(listener Listener) {
	t.mu.Lock()
	t.listener = listener
	t.mu.Unlock()

	listener.OnTransportUp()
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if t.isClosed() {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			listener.OnTransportDown(err)
			continue
		}
		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		listener.OnDatagram(datagram)
	}
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close shuts down the socket, unblocking Serve.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return t.conn.Close()
}
