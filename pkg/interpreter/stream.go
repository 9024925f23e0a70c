package interpreter

import "io"

// flusher is implemented by buffered sinks such as *bufio.Writer
type flusher interface {
	Flush() error
}

// eofReader is the input used when none is given
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// readOne reads exactly one byte, using io.ByteReader when available
func readOne(r io.Reader, buf []byte) (byte, bool) {
	if br, ok := r.(io.ByteReader); ok {
		b, err := br.ReadByte()
		return b, err == nil
	}
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return 0, false
	}
	return buf[0], true
}
