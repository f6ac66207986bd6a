package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	sinkQueueDepth  = 1024
	sinkFlushPeriod = 2 * time.Second
)

// fileSink buffers JSON log lines off the request path. The engine logs
// on every degraded verdict and every brute-force hit, so Write must
// never block: a full queue drops the line.
type fileSink struct {
	buf       *bufio.Writer
	file      *os.File
	lines     chan []byte
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newFileSink(path string, bufBytes int) (*fileSink, error) {
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	s := &fileSink{
		buf:   bufio.NewWriterSize(file, bufBytes),
		file:  file,
		lines: make(chan []byte, sinkQueueDepth),
		done:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.drain()
	return s, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)
	select {
	case s.lines <- line:
	default:
	}
	return len(p), nil
}

func (s *fileSink) drain() {
	defer s.wg.Done()

	ticker := time.NewTicker(sinkFlushPeriod)
	defer ticker.Stop()

	for {
		select {
		case line := <-s.lines:
			s.append(line)

		case <-ticker.C:
			_ = s.buf.Flush()

		case <-s.done:
			for {
				select {
				case line := <-s.lines:
					s.append(line)
				default:
					_ = s.buf.Flush()
					return
				}
			}
		}
	}
}

func (s *fileSink) append(line []byte) {
	if _, err := s.buf.Write(line); err != nil {
		fmt.Fprintln(os.Stderr, "log sink write failed:", err)
	}
}

// Close drains queued lines, flushes and releases the file. Safe to
// call more than once.
func (s *fileSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		_ = s.file.Close()
	})
}
