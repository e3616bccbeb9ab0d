package record

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Recorder streams finished games into one parquet file. The file is
// complete only after Close.
type Recorder struct {
	records chan GameRecord
	done    chan error
	log     zerolog.Logger

	mu     sync.Mutex
	closed bool
	failed atomic.Bool
}

// NewRecorder starts the writer goroutine for path.
func NewRecorder(path string, log zerolog.Logger) *Recorder {
	r := &Recorder{
		records: make(chan GameRecord, 16),
		done:    make(chan error, 1),
		log:     log.With().Str("component", "record").Str("path", path).Logger(),
	}
	go func() {
		err := WriteParquet(path, r.records, 1)
		if err != nil {
			r.failed.Store(true)
			r.log.Error().Err(err).Msg("record writer failed")
			// Keep receiving so Add never blocks on a dead writer.
			for rec := range r.records {
				r.log.Warn().Str("game", rec.GameID).Msg("record writer failed, record dropped")
			}
		}
		r.done <- err
	}()
	return r
}

// Add queues rec. Records added after Close, or after the writer failed, are
// dropped.
func (r *Recorder) Add(rec GameRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.log.Warn().Str("game", rec.GameID).Msg("recorder closed, record dropped")
		return
	}
	r.records <- rec
	if r.failed.Load() {
		return
	}
	r.log.Info().Str("game", rec.GameID).Str("winner", rec.Winner).Int32("moves", rec.MoveCount).Msg("game recorded")
}

// Close flushes the file and returns the writer's error.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.records)
	r.mu.Unlock()
	return <-r.done
}
