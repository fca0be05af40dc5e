// Package notify forwards ingested events by email, off the request path.
//
// Delivery is attempted at most once. Failures are classified, logged and
// counted, never returned to the ingesting client.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
	"github.com/logmonitor/logmonitor/internal/db/models"
	"github.com/logmonitor/logmonitor/internal/metrics"
)

const (
	DefaultWorkers   = 2
	DefaultQueueSize = 256
	DefaultTimeout   = 10 * time.Second
)

// Outcomes counted in mail_dispatch_total next to the failure reasons.
const (
	ResultSent    = "sent"
	ResultSkipped = "skipped"
	ResultDropped = "dropped"
)

// Settings provides the current transport settings with the password opened.
type Settings interface {
	Transport() (appsettings.Mail, error)
}

// Options sizes the dispatcher.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type job struct {
	user    models.User
	level   string
	message string
}

// Dispatcher runs a fixed pool of mail workers.
type Dispatcher struct {
	settings Settings
	sender   Sender
	counters *metrics.Counters
	opts     Options

	mu      sync.Mutex
	stopped bool
	jobs    chan job
	wg      sync.WaitGroup
}

// New returns a dispatcher. Start must be called before jobs are processed.
func New(settings Settings, sender Sender, opts Options, counters *metrics.Counters) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if counters == nil {
		counters = metrics.NewUnregistered()
	}

	return &Dispatcher{
		settings: settings,
		sender:   sender,
		counters: counters,
		opts:     opts,
		jobs:     make(chan job, opts.QueueSize),
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)

		go func(worker int) {
			defer d.wg.Done()

			for j := range d.jobs {
				d.Deliver(j.user, j.level, j.message)
			}

			log.Debug().Int("worker", worker).Msg("mail worker stopped")
		}(i)
	}

	log.Info().Int("workers", d.opts.Workers).Int("queue", d.opts.QueueSize).Msg("mail dispatcher started")
}

// Dispatch queues a notification without blocking. The returned error only
// says why nothing was queued; callers are expected to ignore it.
func (d *Dispatcher) Dispatch(user models.User, level, message string) error {
	if !user.HasEmail() {
		log.Debug().Uint64("user_id", user.ID).Msg("user email not found, no mail sent")
		d.counters.MailDispatch.WithLabelValues(ResultSkipped).Inc()

		return ErrNoRecipient
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.jobs <- job{user: user, level: level, message: message}:
		return nil
	default:
		log.Warn().Uint64("user_id", user.ID).Str("level", level).Msg("mail queue full, notification dropped")
		d.counters.MailDispatch.WithLabelValues(ResultDropped).Inc()

		return ErrQueueFull
	}
}

// Deliver makes one delivery attempt synchronously and returns the outcome label.
func (d *Dispatcher) Deliver(user models.User, level, message string) string {
	logger := log.With().Uint64("user_id", user.ID).Str("level", level).Logger()

	transport, err := d.settings.Transport()
	if err != nil {
		logger.Error().Err(err).Str("reason", string(ReasonOther)).Msg("failed to load mail settings")
		d.counters.MailDispatch.WithLabelValues(string(ReasonOther)).Inc()

		return string(ReasonOther)
	}

	if !transport.Enabled {
		logger.Debug().Msg("email forwarding disabled")
		d.counters.MailDispatch.WithLabelValues(ResultSkipped).Inc()

		return ResultSkipped
	}

	if !transport.Complete() {
		logger.Warn().Msg("mail transport not fully configured, no mail sent")
		d.counters.MailDispatch.WithLabelValues(ResultSkipped).Inc()

		return ResultSkipped
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
	defer cancel()

	msg := Compose(transport.Sender(), user, level, message)

	if err := d.sender.Send(ctx, transport, msg); err != nil {
		failure := &Failure{Reason: Classify(err), Err: err}

		logger.Error().Err(failure.Err).Str("reason", string(failure.Reason)).
			Str("host", transport.Host).Int("port", transport.Port).
			Str("tls", TLSModeFor(transport.Port, transport.UseTLS, transport.AllowInsecure).String()).
			Msg("mail delivery failed")
		d.counters.MailDispatch.WithLabelValues(string(failure.Reason)).Inc()

		return string(failure.Reason)
	}

	logger.Info().Str("to", user.Email).Msg("log email sent")
	d.counters.MailDispatch.WithLabelValues(ResultSent).Inc()

	return ResultSent
}

// Stop refuses new jobs and waits for the queued ones to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()

	if d.stopped {
		d.mu.Unlock()

		return
	}

	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()

	log.Info().Msg("mail dispatcher stopped")
}
