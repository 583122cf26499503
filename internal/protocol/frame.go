package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const DefaultMaxFrameSize = 8192

var ErrFrameTooLong = errors.New("frame exceeds maximum size")

// FrameReader splits a byte stream into newline-terminated frames.
type FrameReader struct {
	reader  *bufio.Reader
	maxSize int
}

func NewFrameReader(r io.Reader, maxSize int) *FrameReader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	return &FrameReader{
		reader:  bufio.NewReaderSize(r, maxSize),
		maxSize: maxSize,
	}
}

// ReadFrame - returns the next non-empty frame without its terminator.
// A trailing partial frame at EOF is discarded.
func (that *FrameReader) ReadFrame() (string, error) {
	for {
		line, err := that.reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			return "", fmt.Errorf("%w: limit %d bytes", ErrFrameTooLong, that.maxSize)
		}

		if err != nil {
			return "", err //nolint: wrapcheck // io.EOF must stay comparable
		}

		frame := strings.TrimRight(string(line), "\r\n")
		if frame == "" {
			continue
		}

		return frame, nil
	}
}

// WriteFrame - writes one frame followed by a newline and flushes.
func WriteFrame(writer *bufio.Writer, frame string) error {
	if _, err := writer.WriteString(frame + "\n"); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}

	return nil
}
