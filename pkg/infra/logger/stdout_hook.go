package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// stdoutHook mirrors every entry to stdout so container logs stay live
// while the file sink buffers in the background.
type stdoutHook struct {
	out io.Writer
}

func newStdoutHook() *stdoutHook {
	return &stdoutHook{out: os.Stdout}
}

func (h *stdoutHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}

func (h *stdoutHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
