package comm

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"
)

// Receiver reads whole chunks from a transport into a RxBuffer.
type Receiver struct {
	Reader io.Reader
	Buffer *RxBuffer
	// Overwrite makes the receiver behave like an interrupt handler: a
	// chunk arriving before the parser took the previous one is dropped.
	Overwrite bool
}

// NewReceiver creates a Receiver.
func NewReceiver(r io.Reader, buf *RxBuffer) *Receiver {
	return &Receiver{Reader: r, Buffer: buf}
}

// Run receives chunks until the transport ends or ctx is done.
// End of stream is not an error.
func (r *Receiver) Run(ctx context.Context) error {
	chunkCh, errCh := make(chan Chunk), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			if r.Overwrite {
				if !r.Buffer.TryPut(chunk) {
					glog.Warningf("receive overrun, chunk %q dropped", chunk[:])
				}
				continue
			}
			if err := r.Buffer.Put(ctx, chunk); err != nil {
				return err
			}
		case err := <-errCh:
			if err == io.EOF {
				glog.Info("transport closed")
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				glog.Warning("transport closed within a chunk")
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Receiver) readLoop(ctx context.Context, chunkCh chan Chunk, errCh chan error) {
	var chunk Chunk
	for {
		if _, err := io.ReadFull(r.Reader, chunk[:]); err != nil {
			errCh <- err
			return
		}
		glog.V(2).Infof("chunk %q", chunk[:])
		select {
		case chunkCh <- chunk:
		case <-ctx.Done():
			return
		}
	}
}
