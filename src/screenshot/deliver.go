package screenshot

import (
	"errors"
	"fmt"
)

// Sink is an output destination for captured pixels, such as the clipboard.
type Sink interface {
	Accept(buf *PixelBuffer) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(buf *PixelBuffer) error

func (f SinkFunc) Accept(buf *PixelBuffer) error { return f(buf) }

// Deliver transfers buf to sink. The buffer is consumed whether or not the
// sink accepts it; failures are reported once and never retried.
func Deliver(buf *PixelBuffer, sink Sink) error {
	if buf == nil {
		return fmt.Errorf("%w: nil buffer", ErrDeliveryFailed)
	}
	if sink == nil {
		return fmt.Errorf("%w: no sink", ErrDeliveryFailed)
	}
	if !buf.consume() {
		return ErrBufferConsumed
	}
	if err := sink.Accept(buf); err != nil {
		if errors.Is(err, ErrDeliveryFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
