package visitlog

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
)

// Recorder appends visit records off the request path. Record never
// blocks and never returns an error: a full buffer drops the record, a
// failed write is logged and swallowed.
type Recorder struct {
	repo      visit.Repository
	logger    *logrus.Logger
	visits    chan visit.Visit
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	timeout   time.Duration
}

func NewRecorder(repo visit.Repository, logger *logrus.Logger, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	r := &Recorder{
		repo:    repo,
		logger:  logger,
		visits:  make(chan visit.Visit, bufferSize),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go r.process()

	return r
}

func (r *Recorder) Record(v visit.Visit) {
	select {
	case r.visits <- v:
	default:
		r.logger.WithField("ip", v.IPAddress).Warn("visit buffer full, dropping record")
	}
}

func (r *Recorder) process() {
	defer r.wg.Done()

	for {
		select {
		case v := <-r.visits:
			r.persist(v)

		case <-r.done:
			for {
				select {
				case v := <-r.visits:
					r.persist(v)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(v visit.Visit) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Create(ctx, &v); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"ip":   v.IPAddress,
			"path": v.Path,
		}).Error("failed to persist visit")
	}
}

// Close drains buffered records and stops the worker. Safe to call more
// than once.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}
