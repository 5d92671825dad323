package syncer

import (
	"io"
	"sync"

	"github.com/vx-labs/syncer/pb"
)

// pipeStream is an in-process, in-memory implementation of wireStream
// used by this package's tests instead of a mocking framework or a real
// listening socket.
type pipeStream struct {
	sendCh   chan *pb.MessageBatch
	recvCh   chan *pb.MessageBatch
	sendOnce sync.Once
}

func newPipePair() (*pipeStream, *pipeStream) {
	ab := make(chan *pb.MessageBatch, 64)
	ba := make(chan *pb.MessageBatch, 64)
	a := &pipeStream{sendCh: ab, recvCh: ba}
	b := &pipeStream{sendCh: ba, recvCh: ab}
	return a, b
}

func (p *pipeStream) Send(b *pb.MessageBatch) error {
	p.sendCh <- b
	return nil
}

func (p *pipeStream) Recv() (*pb.MessageBatch, error) {
	b, ok := <-p.recvCh
	if !ok {
		return nil, io.EOF
	}
	return b, nil
}

func (p *pipeStream) CloseSend() error {
	p.sendOnce.Do(func() { close(p.sendCh) })
	return nil
}

// brokenStream always fails, for exercising terminal failure handling.
type brokenStream struct {
	err error
}

func (b *brokenStream) Send(*pb.MessageBatch) error         { return b.err }
func (b *brokenStream) Recv() (*pb.MessageBatch, error)     { return nil, b.err }
