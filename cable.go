package meterdb

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// IngestCable batches records and posts them to the ingestion service.
//
// Configure the exported fields before calling Start. Send must not be called
// after Close.
type IngestCable[R json.Marshaler] struct {
	c *Client

	metric       string
	currentSize  uint64
	sendRecords  []*sendRecord
	sendRecordCh chan *sendRecord

	started atomic.Bool
	stopped chan struct{}
	flushes sync.WaitGroup

	// BatchSize is the buffered NDJSON size in bytes above which a batch is sent.
	BatchSize uint64
	// BatchInterval is the period after which buffered records are sent regardless of size.
	BatchInterval time.Duration
	// Validate, when set, rejects records before they are buffered.
	Validate func(R) error
}

type sendRecord struct {
	line []byte
	err  chan error
}

// NewIngestCable creates a cable that sends records under the given metric.
func NewIngestCable[R json.Marshaler](c *Client, metric string) *IngestCable[R] {
	return &IngestCable[R]{
		c:             c,
		metric:        metric,
		sendRecordCh:  make(chan *sendRecord),
		stopped:       make(chan struct{}),
		BatchSize:     1024 * 1024, // default to 1MiB
		BatchInterval: time.Second, // default to 1 second
	}
}

func (c *IngestCable[R]) Start(ctx context.Context) {
	c.started.Store(true)
	go func() {
		defer close(c.stopped)

		interval := c.BatchInterval
		if interval <= 0 {
			interval = time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		stop, tick := false, false
		for {
			if (tick || stop || c.currentSize > c.BatchSize) && len(c.sendRecords) > 0 {
				c.flush(ctx, c.sendRecords)
				c.currentSize = 0
				c.sendRecords = nil
			}
			tick = false

			if stop {
				return
			}

			select {
			case <-ticker.C:
				tick = true
			case r, more := <-c.sendRecordCh:
				if !more {
					stop = true
					continue
				}
				c.currentSize += uint64(len(r.line)) + 1
				c.sendRecords = append(c.sendRecords, r)
			}
		}
	}()
}

func (c *IngestCable[R]) flush(ctx context.Context, batch []*sendRecord) {
	c.flushes.Add(1)
	go func() {
		defer c.flushes.Done()

		var body bytes.Buffer
		for _, r := range batch {
			body.Write(r.line)
			body.WriteByte('\n')
		}

		resp, err := c.c.Ingest(ctx, c.metric, body.Bytes())
		if err == nil && resp.ParseErrors > 0 {
			err = &IngestError{Accepted: resp.Accepted, ParseErrors: resp.ParseErrors}
		}
		for _, r := range batch {
			if err != nil {
				r.err <- err
			}
			close(r.err)
		}
	}()
}

// Send queues a record. The returned channel yields the record's error, if
// any, and is closed once the batch holding the record is sent.
func (c *IngestCable[R]) Send(record R) <-chan error {
	errCh := make(chan error, 1)
	fail := func(err error) <-chan error {
		errCh <- err
		close(errCh)
		return errCh
	}

	if c.Validate != nil {
		if err := c.Validate(record); err != nil {
			return fail(err)
		}
	}
	line, err := record.MarshalJSON()
	if err != nil {
		return fail(err)
	}

	c.sendRecordCh <- &sendRecord{line: line, err: errCh}
	return errCh
}

// Close sends any buffered records and waits for in-flight batches to finish.
func (c *IngestCable[R]) Close() {
	close(c.sendRecordCh)
	if c.started.Load() {
		<-c.stopped
	}
	c.flushes.Wait()
}
