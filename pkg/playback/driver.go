// ABOUTME: Playback driver running source, demux, header validation, decode and sink
// ABOUTME: Runs decode and sink feeding concurrently and releases resources exactly once
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oggplay/oggplay/pkg/audio"
	"github.com/oggplay/oggplay/pkg/audio/decode"
	"github.com/oggplay/oggplay/pkg/audio/header"
	"github.com/oggplay/oggplay/pkg/audio/output"
	"github.com/oggplay/oggplay/pkg/audio/resample"
	"github.com/oggplay/oggplay/pkg/ogg"
)

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("playback: driver already run")

// Config configures a Driver.
type Config struct {
	// OpenSource acquires the byte stream. Required.
	OpenSource func(ctx context.Context) (io.ReadCloser, error)

	// OpenSink acquires the audio sink handle. Required. The sink is opened
	// for a format once the stream headers are known.
	OpenSink func(ctx context.Context) (output.Output, error)

	// NewDecoder builds the decoder for a validated stream (default: decode.New)
	NewDecoder decode.Factory

	// BufferBlocks is the PCM queue capacity (default: 4, max 64)
	BufferBlocks int

	// ReadSize is the source read chunk size (default: 4096)
	ReadSize int

	// DrainPoll is how often the sink is polled while draining (default: 20ms)
	DrainPoll time.Duration

	// DrainTimeout bounds the wait for the sink to finish (default: 10s)
	DrainTimeout time.Duration

	// MaxDecodeErrors is how many consecutive packet decode failures are
	// tolerated before playback fails (default: 32)
	MaxDecodeErrors int

	// OutputRate resamples decoded audio when non-zero and different from
	// the stream rate.
	OutputRate int

	// ResampleQuality selects the rate converter: "linear" (default) or
	// "high".
	ResampleQuality string

	// OnStateChange is called for every state transition, in order.
	OnStateChange func(State)

	// OnDescriptor is called once the stream headers are validated.
	OnDescriptor func(*header.Descriptor)
}

// Stats is a snapshot of driver counters.
type Stats struct {
	Pages          int64
	Packets        int64
	Blocks         int64
	Submitted      int64
	Frames         int64
	DecodeErrors   int64
	Resyncs        int64
	Gaps           int64
	StalePages     int64
	CorruptPages   int64
	SkippedBytes   int64
	QueueHighWater int
}

// Driver plays one Ogg stream from source to sink.
type Driver struct {
	config  Config
	session string
	started atomic.Bool

	mu     sync.Mutex
	state  State
	desc   *header.Descriptor
	demux  *ogg.Demuxer
	queue  *Queue
	blocks int64
	sent   int64
	frames int64
	decErr int64
}

// NewDriver validates config and applies defaults.
func NewDriver(config Config) (*Driver, error) {
	if config.OpenSource == nil {
		return nil, fmt.Errorf("playback: no source configured")
	}
	if config.OpenSink == nil {
		return nil, fmt.Errorf("playback: no sink configured")
	}
	if config.NewDecoder == nil {
		config.NewDecoder = decode.New
	}
	if config.BufferBlocks <= 0 {
		config.BufferBlocks = 4
	}
	if config.BufferBlocks > MaxQueueBlocks {
		config.BufferBlocks = MaxQueueBlocks
	}
	if config.ReadSize <= 0 {
		config.ReadSize = ogg.DefaultReadSize
	}
	if config.DrainPoll <= 0 {
		config.DrainPoll = 20 * time.Millisecond
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = 10 * time.Second
	}
	if config.MaxDecodeErrors <= 0 {
		config.MaxDecodeErrors = 32
	}

	return &Driver{
		config:  config,
		session: uuid.New().String()[:8],
		state:   Idle,
	}, nil
}

// Session returns the id that prefixes this driver's log lines.
func (d *Driver) Session() string {
	return d.session
}

// State returns the current state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Descriptor returns the validated stream descriptor, or nil before the
// headers are complete.
func (d *Driver) Descriptor() *header.Descriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.desc
}

// Stats returns a snapshot of the counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	s := Stats{
		Blocks:       d.blocks,
		Submitted:    d.sent,
		Frames:       d.frames,
		DecodeErrors: d.decErr,
	}
	demux, queue := d.demux, d.queue
	d.mu.Unlock()

	if demux != nil {
		ds := demux.Stats()
		s.Pages = ds.Pages
		s.Packets = ds.Packets
		s.Resyncs = ds.Resyncs
		s.Gaps = ds.Gaps
		s.StalePages = ds.StalePages
		s.CorruptPages = ds.CorruptPages
		s.SkippedBytes = ds.SkippedBytes
	}
	if queue != nil {
		s.QueueHighWater = queue.HighWater()
	}
	return s
}

// QueueDepth returns the current and maximum number of queued blocks.
func (d *Driver) QueueDepth() (n, capacity int) {
	d.mu.Lock()
	queue := d.queue
	d.mu.Unlock()
	if queue == nil {
		return 0, d.config.BufferBlocks
	}
	return queue.Len(), queue.Cap()
}

// Run plays the stream to completion. It returns nil after a clean end,
// ctx.Err() when cancelled, and *Error on a fatal failure. Every acquired
// resource is released exactly once before Run returns.
func (d *Driver) Run(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	var rel releaser
	err := d.run(ctx, &rel)
	cancelled := err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err())
	if cancelled {
		d.setState(Draining)
	}
	rel.release(d.logf)

	if err != nil && !cancelled {
		d.logf("%v", err)
		d.setState(Failed)
		return err
	}
	d.setState(Closed)
	return err
}

func (d *Driver) run(ctx context.Context, rel *releaser) error {
	cfg := d.config

	d.setState(Opening)
	sink, err := cfg.OpenSink(ctx)
	if err != nil {
		return d.fail(ctx, KindSinkUnavailable, err)
	}
	rel.push("sink", sink.Close)

	src, err := cfg.OpenSource(ctx)
	if err != nil {
		return d.fail(ctx, KindSourceUnavailable, err)
	}
	closeSrc := onceCloser(src)
	rel.push("source", closeSrc)
	// A cancel must unblock a read stalled inside the source.
	stop := context.AfterFunc(ctx, func() { _ = closeSrc() })
	rel.push("cancel watch", func() error {
		stop()
		return nil
	})

	if err := ctx.Err(); err != nil {
		return err
	}

	d.setState(SyncingHeaders)
	demux := ogg.NewDemuxer(src, ogg.WithReadSize(cfg.ReadSize))
	d.mu.Lock()
	d.demux = demux
	d.mu.Unlock()

	desc, err := d.syncHeaders(ctx, demux)
	if err != nil {
		return err
	}

	format := desc.Format()
	var rs resample.Converter
	if cfg.OutputRate > 0 && cfg.OutputRate != format.SampleRate {
		rs, err = resample.NewConverter(cfg.ResampleQuality, format.SampleRate, cfg.OutputRate, format.Channels)
		if err != nil {
			return d.fail(ctx, KindInternal, err)
		}
		d.logf("resampling %d Hz -> %d Hz (%s)", format.SampleRate, cfg.OutputRate, qualityName(cfg.ResampleQuality))
		format.SampleRate = cfg.OutputRate
	}

	if err := sink.Open(format); err != nil {
		return d.fail(ctx, KindSinkUnavailable, err)
	}
	d.logf("sink opened: %s", format)

	dec, err := cfg.NewDecoder(desc)
	if err != nil {
		return d.fail(ctx, KindDecoder, err)
	}
	rel.push("decoder", dec.Close)

	d.setState(Streaming)
	queue := NewQueue(cfg.BufferBlocks)
	d.mu.Lock()
	d.queue = queue
	d.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer queue.MarkFinished()
		return d.produce(gctx, demux, dec, rs, format, queue)
	})
	g.Go(func() error {
		return d.consume(gctx, queue, sink)
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	d.setState(Draining)
	d.drain(ctx, sink)
	if err := ctx.Err(); err != nil {
		return err
	}
	s := d.Stats()
	d.logf("finished: %d blocks submitted, %d decode errors, %d resyncs, %d gaps",
		s.Submitted, s.DecodeErrors, s.Resyncs, s.Gaps)
	return nil
}

// syncHeaders pulls packets until the validator is ready.
func (d *Driver) syncHeaders(ctx context.Context, demux *ogg.Demuxer) (*header.Descriptor, error) {
	v := header.NewValidator()
	for {
		pkt, err := demux.NextPacket(ctx)
		if errors.Is(err, io.EOF) {
			return nil, d.fail(ctx, KindCorruptHeader, v.Finish())
		}
		if err != nil {
			return nil, d.fail(ctx, KindTruncatedStream, err)
		}

		step, err := v.Submit(pkt)
		if err != nil {
			return nil, d.fail(ctx, KindCorruptHeader, err)
		}
		if step.Kind != header.StepReady {
			continue
		}

		desc := step.Descriptor
		d.mu.Lock()
		d.desc = desc
		d.mu.Unlock()
		d.logf("stream %08x: %s, vendor %q", desc.Serial, desc.Format(), desc.Vendor)
		if d.config.OnDescriptor != nil {
			d.config.OnDescriptor(desc)
		}
		return desc, nil
	}
}

// produce decodes packets into blocks and pushes them, blocking on a full
// queue.
func (d *Driver) produce(ctx context.Context, demux *ogg.Demuxer, dec decode.Decoder,
	rs resample.Converter, format audio.Format, queue *Queue) error {
	var (
		index       int64
		granule     int64
		consecutive int
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkt, err := demux.NextPacket(ctx)
		if errors.Is(err, io.EOF) {
			return d.flushConverter(ctx, rs, index, granule, format, queue)
		}
		if err != nil {
			return d.fail(ctx, KindTruncatedStream, err)
		}
		granule = pkt.GranulePos

		samples, err := dec.Decode(pkt.Data)
		if err != nil {
			consecutive++
			d.mu.Lock()
			d.decErr++
			d.mu.Unlock()
			d.logf("decode error on packet %d: %v", pkt.Number, err)
			if consecutive >= d.config.MaxDecodeErrors {
				return d.fail(ctx, KindDecoder,
					fmt.Errorf("%d consecutive decode failures: %w", consecutive, err))
			}
			continue
		}
		consecutive = 0
		if rs != nil {
			samples, err = rs.Convert(samples)
			if err != nil {
				return d.fail(ctx, KindInternal, err)
			}
		}
		if len(samples) == 0 {
			continue
		}

		block := audio.Block{
			Index:   index,
			Granule: pkt.GranulePos,
			Samples: samples,
			Format:  format,
		}
		if err := queue.Push(ctx, block); err != nil {
			return err
		}
		index++
		d.mu.Lock()
		d.blocks++
		d.mu.Unlock()
	}
}

func qualityName(q string) string {
	if q == "" {
		return resample.QualityLinear
	}
	return q
}

// flushConverter pushes whatever the rate converter held back as a final
// block.
func (d *Driver) flushConverter(ctx context.Context, rs resample.Converter, index, granule int64,
	format audio.Format, queue *Queue) error {
	if rs == nil {
		return nil
	}
	samples, err := rs.Flush()
	if err != nil {
		return d.fail(ctx, KindInternal, err)
	}
	if len(samples) == 0 {
		return nil
	}
	block := audio.Block{Index: index, Granule: granule, Samples: samples, Format: format}
	if err := queue.Push(ctx, block); err != nil {
		return err
	}
	d.mu.Lock()
	d.blocks++
	d.mu.Unlock()
	return nil
}

// consume hands queued blocks to the sink in order.
func (d *Driver) consume(ctx context.Context, queue *Queue, sink output.Output) error {
	for {
		block, ok, err := queue.Pop(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := sink.Write(block.Samples); err != nil {
			return d.fail(ctx, KindSinkUnavailable, err)
		}
		d.mu.Lock()
		d.sent++
		d.frames += int64(block.Frames())
		d.mu.Unlock()
	}
}

// drain waits for the sink to stop playing, bounded by DrainTimeout.
func (d *Driver) drain(ctx context.Context, sink output.Output) {
	if !sink.Playing() {
		return
	}
	timeout := time.NewTimer(d.config.DrainTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(d.config.DrainPoll)
	defer ticker.Stop()

	for sink.Playing() {
		select {
		case <-ctx.Done():
			return
		case <-timeout.C:
			d.logf("drain timed out after %v", d.config.DrainTimeout)
			return
		case <-ticker.C:
		}
	}
}

// fail wraps err as a fatal *Error for the current state. A cancelled ctx
// takes precedence over the failure it caused.
func (d *Driver) fail(ctx context.Context, def Kind, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Kind: kindOf(err, def), State: d.State(), Err: err}
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	if d.state == s || d.state.Terminal() {
		d.mu.Unlock()
		return
	}
	prev := d.state
	d.state = s
	d.mu.Unlock()

	d.logf("%s -> %s", prev, s)
	if d.config.OnStateChange != nil {
		d.config.OnStateChange(s)
	}
}

func (d *Driver) logf(format string, args ...any) {
	log.Printf("[playback %s] "+format, append([]any{d.session}, args...)...)
}

// releaser closes acquired resources in reverse order, once.
type releaser struct {
	names []string
	fns   []func() error
	once  sync.Once
}

func (r *releaser) push(name string, fn func() error) {
	r.names = append(r.names, name)
	r.fns = append(r.fns, fn)
}

func (r *releaser) release(logf func(string, ...any)) {
	r.once.Do(func() {
		for i := len(r.fns) - 1; i >= 0; i-- {
			if err := r.fns[i](); err != nil {
				logf("release %s: %v", r.names[i], err)
			}
		}
	})
}

func onceCloser(c io.Closer) func() error {
	var (
		once sync.Once
		err  error
	)
	return func() error {
		once.Do(func() { err = c.Close() })
		return err
	}
}
