package notify

import (
	"errors"
	"partywork/infra/metrics"
	"sync"

	"github.com/sirupsen/logrus"
)

const DefaultQueueSize = 256

var (
	ErrQueueFull         = errors.New("mail queue is full")
	ErrDispatcherStopped = errors.New("mail dispatcher is stopped")
)

// Dispatcher delivers messages on a single worker goroutine, so event handlers never wait for SMTP.
type Dispatcher struct {
	mailer *Mailer
	queue  chan *Message

	lock      sync.RWMutex
	stopped   bool
	wg        sync.WaitGroup
	startOnce sync.Once
}

func NewDispatcher(mailer *Mailer, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{mailer: mailer, queue: make(chan *Message, queueSize)}
}

// Start launches the worker. It runs until Stop, so mail enqueued while the server drains is still sent.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.run()
	})
}

// Enqueue never blocks, the message is dropped when the queue is full.
func (d *Dispatcher) Enqueue(msg *Message) error {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.stopped {
		logrus.WithFields(logrus.Fields{"template": msg.Template, "to": msg.To}).Error("mail dropped: ", ErrDispatcherStopped)
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		metrics.MailsSentTotal.WithLabelValues(msg.Template, "dropped").Inc()
		logrus.WithFields(logrus.Fields{"template": msg.Template, "to": msg.To}).Error("mail dropped: ", ErrQueueFull)
		return ErrQueueFull
	}
}

// Stop closes the queue and waits until the queued messages are delivered.
func (d *Dispatcher) Stop() {
	d.lock.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.lock.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg *Message) {
	err := d.mailer.Send(msg)
	metrics.RecordMailSent(msg.Template, err)
	entry := logrus.WithFields(logrus.Fields{"template": msg.Template, "to": msg.To})
	if err != nil {
		entry.Errorf("failed to send mail: %v", err)
		return
	}
	entry.Info("mail sent")
}
