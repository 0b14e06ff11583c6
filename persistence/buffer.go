package persistence

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type commandType int

const (
	readCommand commandType = iota + 1
	writeCommand
	existsCommand
	deleteCommand
	keysCommand
)

type responseType struct {
	payload []byte
	keys    []string
	ok      bool
	err     error
}

type commandBuffer struct {
	cmdType  commandType
	key      string
	payload  []byte
	response chan responseType
}

// Buffer runs every operation against a Backend on one goroutine.
// Callers block until their own command has completed, so a write returns
// only once the wrapped backend has accepted or rejected it.
type Buffer struct {
	persistence Backend
	cb          chan commandBuffer
	ctx         context.Context
	done        chan struct{}
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
	closeErr    error
}

var _ Backend = (*Buffer)(nil)

// NewBuffer creates a new Buffer around persistence.
func NewBuffer(persistence Backend, bufferSize uint) (*Buffer, error) {
	if persistence == nil {
		return nil, errors.New("NewBuffer: persistence cannot be nil")
	}
	ctx, cancelFunc := context.WithCancel(context.Background())
	buffer := &Buffer{
		persistence: persistence,
		cb:          make(chan commandBuffer, bufferSize),
		ctx:         ctx,
		done:        make(chan struct{}),
		cancel:      cancelFunc,
	}
	buffer.wg.Add(1)
	go buffer.commandBuffer()
	return buffer, nil
}

// Close stops the command loop and closes the wrapped backend.
// Commands issued after Close fail with ErrClosed.
func (b *Buffer) Close() error {
	b.closeOnce.Do(func() {
		b.cancel()
		b.wg.Wait()
		b.closeErr = b.persistence.Close()
	})
	return b.closeErr
}

// Read queues a read command and waits for its result.
func (b *Buffer) Read(key string) ([]byte, bool, error) {
	r := b.submit(commandBuffer{cmdType: readCommand, key: key})
	return r.payload, r.ok, r.err
}

// Write queues a write command and waits for its result.
func (b *Buffer) Write(key string, payload []byte) error {
	return b.submit(commandBuffer{cmdType: writeCommand, key: key, payload: payload}).err
}

// Exists queues an exists command and waits for its result.
func (b *Buffer) Exists(key string) bool {
	return b.submit(commandBuffer{cmdType: existsCommand, key: key}).ok
}

// Delete queues a delete command and waits for its result.
func (b *Buffer) Delete(key string) error {
	return b.submit(commandBuffer{cmdType: deleteCommand, key: key}).err
}

// Keys queues a keys command and waits for its result.
func (b *Buffer) Keys() ([]string, error) {
	r := b.submit(commandBuffer{cmdType: keysCommand})
	return r.keys, r.err
}

func (b *Buffer) submit(command commandBuffer) responseType {
	command.response = make(chan responseType, 1)
	select {
	case b.cb <- command:
	case <-b.ctx.Done():
		return responseType{err: errors.Wrap(ErrClosed, "Buffer.submit")}
	}
	select {
	case r := <-command.response:
		return r
	case <-b.done:
		// The loop has exited: a dequeued command has already been answered,
		// anything left in the queue never reached the backend.
		select {
		case r := <-command.response:
			return r
		default:
			return responseType{err: errors.Wrap(ErrClosed, "Buffer.submit")}
		}
	}
}

// commandBuffer processes commands until the buffer is closed.
func (b *Buffer) commandBuffer() {
	defer b.wg.Done()
	defer close(b.done)
	for {
		select {
		case command := <-b.cb:
			b.processCommand(command)
		case <-b.ctx.Done():
			b.drain()
			log.Debug().Msg("Buffer.commandBuffer cancelled")
			return
		}
	}
}

// drain fails any commands still queued at close.
func (b *Buffer) drain() {
	for {
		select {
		case command := <-b.cb:
			command.response <- responseType{err: errors.Wrap(ErrClosed, "Buffer.drain")}
		default:
			return
		}
	}
}

// processCommand processes an individual command.
func (b *Buffer) processCommand(command commandBuffer) {
	var r responseType
	switch command.cmdType {
	case readCommand:
		r.payload, r.ok, r.err = b.persistence.Read(command.key)
	case writeCommand:
		r.err = b.persistence.Write(command.key, command.payload)
	case existsCommand:
		r.ok = b.persistence.Exists(command.key)
	case deleteCommand:
		r.err = b.persistence.Delete(command.key)
	case keysCommand:
		r.keys, r.err = b.persistence.Keys()
	}

	if r.err != nil {
		log.Error().Err(r.err).Str("key", command.key).Msgf("Buffer.processCommand command: %d", command.cmdType)
	}
	command.response <- r
}
