package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchItem is one unit of work in a chunked batch run.
type BatchItem struct {
	ID    int
	Label string
}

// BatchRunner fans a list of items out in fixed-size chunks. Each chunk
// runs its items concurrently and the runner waits for the whole chunk
// before moving on, so at most chunkSize lookups are in flight at once.
type BatchRunner struct {
	chunkSize  int
	chunkDelay time.Duration
}

// NewBatchRunner constructs a BatchRunner. chunkSize below 1 is clamped
// to 1 so a misconfigured value cannot stall the loop.
func NewBatchRunner(chunkSize int, chunkDelay time.Duration) *BatchRunner {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &BatchRunner{chunkSize: chunkSize, chunkDelay: chunkDelay}
}

// Run processes items chunk by chunk, reporting progress into state after
// every chunk. The worker fn must handle its own persistence; an error or
// panic from one item never aborts the rest of the chunk. Between chunks
// the runner honors the cooperative stop flag and the context, then waits
// chunkDelay before launching the next chunk.
func (b *BatchRunner) Run(ctx context.Context, state *RunState, items []BatchItem, fn func(ctx context.Context, item BatchItem) error) {
	state.SetTotal(len(items))

	processed := 0
	for start := 0; start < len(items); start += b.chunkSize {
		if state.StopRequested() {
			log.Info().Int("processed", processed).Msg("Batch run stopped on request")
			break
		}
		if ctx.Err() != nil {
			log.Info().Int("processed", processed).Msg("Batch run canceled")
			break
		}

		end := start + b.chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		var wg sync.WaitGroup
		for _, item := range chunk {
			wg.Add(1)
			go func(item BatchItem) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						log.Error().
							Str("number", item.Label).
							Interface("panic", r).
							Msg("Batch item panicked")
					}
				}()
				if err := fn(ctx, item); err != nil {
					log.Warn().Err(err).Str("number", item.Label).Msg("Batch item failed")
				}
			}(item)
		}
		wg.Wait()

		processed += len(chunk)
		state.Advance(processed, end, chunk[len(chunk)-1].Label)

		if end < len(items) && b.chunkDelay > 0 {
			select {
			case <-time.After(b.chunkDelay):
			case <-ctx.Done():
			}
		}
	}

	state.Finish()
	log.Info().
		Int("total", len(items)).
		Int("processed", processed).
		Str("status", string(state.Snapshot().Status)).
		Msg("Batch run finished")
}
