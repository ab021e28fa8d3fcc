package vm

import (
	"bufio"
	"io"
)

// Console is the byte-level I/O device behind readbyte, writebyte and print.
// ReadByte returns io.EOF once input is exhausted.
type Console interface {
	ReadByte() (byte, error)
	WriteByte(c byte) error
}

// StreamConsole connects a VM to an io.Reader and an io.Writer. Writes go
// straight through to w; wrap w in a bufio.Writer if buffering is wanted.
type StreamConsole struct {
	r *bufio.Reader
	w io.Writer
}

// NewStreamConsole returns a console reading from r and writing to w. A nil
// r behaves as empty input and a nil w discards output.
func NewStreamConsole(r io.Reader, w io.Writer) *StreamConsole {
	c := &StreamConsole{w: w}
	if r != nil {
		c.r = bufio.NewReader(r)
	}
	if c.w == nil {
		c.w = io.Discard
	}
	return c
}

func (c *StreamConsole) ReadByte() (byte, error) {
	if c.r == nil {
		return 0, io.EOF
	}
	return c.r.ReadByte()
}

func (c *StreamConsole) WriteByte(b byte) error {
	_, err := c.w.Write([]byte{b})
	return err
}
