package sync

import (
	"sync"
)

// StripedChannel is a set of buffered channels with keys consistently mapped
// to one of them, so values for a key are received in the order they were
// sent.
type StripedChannel[T any] struct {
	channels  []chan T
	ring      *ring
	closeOnce sync.Once
}

func NewStripedChannel[T any](count, queueSize uint) *StripedChannel[T] {
	channels := make([]chan T, count)
	for i := range channels {
		channels[i] = make(chan T, queueSize)
	}

	return &StripedChannel[T]{
		channels: channels,
		ring:     newRing(count),
	}
}

// GetChannels returns the receive side of every stripe
func (c *StripedChannel[T]) GetChannels() []<-chan T {
	receivers := make([]<-chan T, len(c.channels))
	for i, channel := range c.channels {
		receivers[i] = channel
	}
	return receivers
}

// Send is non-blocking and reports whether the key's stripe had room for the
// value
func (c *StripedChannel[T]) Send(key []byte, value T) bool {
	select {
	case c.channels[c.ring.shard(key)] <- value:
		return true
	default:
		return false
	}
}

// Close closes every stripe. Sending after Close panics.
func (c *StripedChannel[T]) Close() {
	c.closeOnce.Do(func() {
		for _, channel := range c.channels {
			close(channel)
		}
	})
}
