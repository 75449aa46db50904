package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/delcom/travel-log/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// FileRemover is the subset of ports.FileStorage the janitor needs.
type FileRemover interface {
	Delete(ctx context.Context, name string) (bool, error)
}

// Janitor deletes orphaned image files in the background. Names are routed to
// a fixed set of workers by FNV hash, so deletions of one name never race.
type Janitor struct {
	workers []chan string
	files   FileRemover
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewJanitor creates a Janitor with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewJanitor(files FileRemover, numWorkers int, log zerolog.Logger) *Janitor {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	j := &Janitor{
		workers: make([]chan string, numWorkers),
		files:   files,
		log:     log.With().Str("component", "janitor").Logger(),
	}
	for i := range j.workers {
		j.workers[i] = make(chan string, channelBuffer)
	}
	return j
}

// Start launches all worker goroutines. ctx bounds each deletion; workers exit
// once Stop closes their channels and the backlog is drained.
func (j *Janitor) Start(ctx context.Context) {
	for i, ch := range j.workers {
		j.wg.Add(1)
		go j.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules name for deletion without blocking. A full worker channel
// drops the name with a warning; the file stays behind as an orphan.
func (j *Janitor) Enqueue(name string) {
	if name == "" {
		return
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.stopped {
		j.log.Warn().Str("file", name).Msg("janitor stopped, dropping file")
		return
	}

	idx := j.shardIndex(name)
	select {
	case j.workers[idx] <- name:
		metrics.JanitorQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		j.log.Warn().Str("file", name).Int("worker_id", idx).Msg("janitor queue full, dropping file")
	}
}

// Stop closes the queues and waits for the workers to drain them.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		return
	}
	j.stopped = true
	for _, ch := range j.workers {
		close(ch)
	}
	j.mu.Unlock()

	j.wg.Wait()
}

// shardIndex maps a file name deterministically to a worker index.
func (j *Janitor) shardIndex(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % uint32(len(j.workers)))
}

func (j *Janitor) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer j.wg.Done()
	depth := metrics.JanitorQueueDepth.WithLabelValues(strconv.Itoa(id))

	for name := range ch {
		depth.Dec()
		removed, err := j.files.Delete(ctx, name)
		switch {
		case err != nil:
			metrics.JanitorDeletionsTotal.WithLabelValues("error").Inc()
			j.log.Error().Err(err).
				Str("file", name).
				Int("worker_id", id).
				Msg("file deletion failed")
		case !removed:
			metrics.JanitorDeletionsTotal.WithLabelValues("missing").Inc()
			j.log.Debug().Str("file", name).Int("worker_id", id).Msg("file already gone")
		default:
			metrics.JanitorDeletionsTotal.WithLabelValues("deleted").Inc()
			j.log.Debug().Str("file", name).Int("worker_id", id).Msg("file deleted")
		}
	}
}
