package p2p

import (
	"errors"
	"io"
	"sync"
)

// MaxMessageSize bounds a single framed message payload (16 MiB), matching
// the default content_max_size order of magnitude so a NewTransaction
// frame carrying the largest permitted content still fits one frame.
const MaxMessageSize = 16 * 1024 * 1024

// Msg is the raw length-prefixed frame exchanged between nodes. Payload is
// the bytes produced by wire.Encode: Code duplicates the tag byte wire
// frames already carry so a transport can dispatch without decoding the
// whole frame.
type Msg struct {
	Code    uint64
	Size    uint32
	Payload []byte
}

// Send writes a message with the given code and payload to a Transport.
func Send(t Transport, code uint64, data []byte) error {
	return t.WriteMsg(Msg{
		Code:    code,
		Size:    uint32(len(data)),
		Payload: data,
	})
}

// MsgPipeEnd is one end of a MsgPipe.
type MsgPipeEnd struct {
	send      chan Msg
	recv      chan Msg
	done      chan struct{}
	closeOnce *sync.Once
}

// MsgPipe creates two connected in-memory transports, for tests that need a
// Transport without a real TCP connection. A message written to one end is
// readable from the other. Closing either end shuts down both.
func MsgPipe() (*MsgPipeEnd, *MsgPipeEnd) {
	ch1 := make(chan Msg, 16)
	ch2 := make(chan Msg, 16)
	done := make(chan struct{})
	once := new(sync.Once)

	a := &MsgPipeEnd{send: ch1, recv: ch2, done: done, closeOnce: once}
	b := &MsgPipeEnd{send: ch2, recv: ch1, done: done, closeOnce: once}
	return a, b
}

func (p *MsgPipeEnd) ReadMsg() (Msg, error) {
	select {
	case msg, ok := <-p.recv:
		if !ok {
			return Msg{}, io.EOF
		}
		return msg, nil
	case <-p.done:
		return Msg{}, io.EOF
	}
}

func (p *MsgPipeEnd) WriteMsg(msg Msg) error {
	select {
	case p.send <- msg:
		return nil
	case <-p.done:
		return errors.New("p2p: pipe closed")
	}
}

func (p *MsgPipeEnd) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
