package protocol

import (
	"bytes"
	"encoding/json"
	"io"

	. "varlink.org/varlink/common/util"
)

// DefaultMaxFrameBytes bounds the size of a single inbound message.
const DefaultMaxFrameBytes = 32 * 1024 * 1024

const readChunkSize = 8192

// FrameReader splits a byte stream into NUL-terminated messages.
// Partial trailing bytes stay buffered across reads.
type FrameReader struct {
	r    io.Reader
	buf  []byte
	max  int
	rerr error
}

func NewFrameReader(r io.Reader) *FrameReader {
	return NewFrameReaderSize(r, DefaultMaxFrameBytes)
}

func NewFrameReaderSize(r io.Reader, maxFrameBytes int) *FrameReader {
	return &FrameReader{r: r, max: maxFrameBytes}
}

// ReadFrame returns the next message without its trailing NUL byte.
// io.EOF signals a clean close between messages; EOF in the middle of a
// message is reported as ErrDisconnected, an oversized unframed run as
// ErrFrameTooLarge.
func (fr *FrameReader) ReadFrame() (frame []byte, err error) {
	for {
		if i := bytes.IndexByte(fr.buf, 0); i >= 0 {
			frame = fr.buf[:i:i]
			fr.buf = fr.buf[i+1:]
			return
		}

		if fr.rerr != nil {
			if fr.rerr == io.EOF {
				if len(fr.buf) == 0 {
					err = io.EOF
					return
				}
				err = ErrDisconnected
				return
			}
			err = fr.rerr
			return
		}

		if len(fr.buf) > fr.max {
			err = ErrFrameTooLarge
			return
		}

		chunk := make([]byte, readChunkSize)
		n, readErr := fr.r.Read(chunk)
		fr.buf = append(fr.buf, chunk[:n]...)
		if readErr != nil {
			fr.rerr = readErr
		}
	}
}

// FrameWriter encodes messages as JSON and appends the NUL terminator.
type FrameWriter struct {
	w io.Writer
}

func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

func (fw *FrameWriter) WriteFrame(message interface{}) (err error) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	data = append(data, 0)
	_, err = fw.w.Write(data)
	return
}
