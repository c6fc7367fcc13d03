// Package serialframe reads lighting control frames from a serial line.
// Every frame is prefixed by its length: [len] [mode] [value 0] ... [value len-2].
package serialframe

import (
	"bufio"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

const MaxFrameLen = 255

type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

func Open(cfg Config) (io.ReadWriteCloser, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to open serial port %s: %v", cfg.Device, err)
	}
	return port, nil
}

type Reader struct {
	r   *bufio.Reader
	buf [MaxFrameLen]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadFrame returns the next non-empty frame. The returned slice is only valid until the next call.
func (r *Reader) ReadFrame() ([]byte, error) {
	for {
		l, err := r.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if l == 0 {
			continue
		}
		frame := r.buf[:l]
		if _, err := io.ReadFull(r.r, frame); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return frame, nil
	}
}

// Forward passes every frame to handle until the reader fails. A clean end of input returns nil.
func Forward(r io.Reader, handle func(frame []byte)) error {
	reader := NewReader(r)
	for {
		frame, err := reader.ReadFrame()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		log.Debugf("Received control frame: %v", frame)
		handle(frame)
	}
}

// Encode prefixes a frame with its length.
func Encode(frame []byte) ([]byte, error) {
	if len(frame) > MaxFrameLen {
		return nil, fmt.Errorf("Frame of %v byte exceeds maximum of %v", len(frame), MaxFrameLen)
	}
	return append([]byte{byte(len(frame))}, frame...), nil
}
