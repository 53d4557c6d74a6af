package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Config contains configuration for the Recorder.
type Config struct {
	// Enabled enables journal recording. A disabled recorder drops
	// every record without touching storage.
	Enabled bool

	// Buffer is the size of the async write channel.
	// Default: 1000
	Buffer int

	// WriteTimeout bounds a single storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Buffer:       1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes admission decisions to storage asynchronously.
// Record never blocks: when the buffer is full the record is dropped and
// counted, since stalling the admission path to preserve audit rows would
// invert the library's priorities.
type Recorder struct {
	storage Storage
	config  *Config
	records chan *Record
	dropped atomic.Int64
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewRecorder creates a recorder draining into the given storage backend
// and starts its background writer.
func NewRecorder(storage Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Buffer <= 0 {
		config.Buffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		records: make(chan *Record, config.Buffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.drain()

	return r
}

// Record queues a decision for persistence. The ID and timestamp are
// assigned here when absent.
func (r *Recorder) Record(rec Record) {
	if !r.config.Enabled {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	select {
	case r.records <- &rec:
	default:
		if r.dropped.Add(1)%1000 == 1 {
			r.logger.Warn("journal buffer full, dropping records",
				"dropped_total", r.dropped.Load())
		}
	}
}

// Dropped returns how many records were discarded due to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops the recorder after flushing queued records.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()
	return nil
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for {
		select {
		case rec := <-r.records:
			r.write(rec)
		case <-r.done:
			// Flush whatever is still queued.
			for {
				select {
				case rec := <-r.records:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, rec); err != nil {
		r.logger.Error("failed to store journal record",
			"record_id", rec.ID,
			"identifier", rec.Identifier,
			"error", err)
	}
}
