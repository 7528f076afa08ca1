package container

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/hupe1980/subsurf/codec"
	"github.com/hupe1980/subsurf/mesh"
)

// SkipEvent describes an object the reader omitted because its topology was
// not requested.
type SkipEvent struct {
	Position int
	Name     string
	Topology Topology
}

type options struct {
	topologies   map[Topology]bool
	all          bool
	onSkip       func(SkipEvent)
	logger       *slog.Logger
	maxFrameSize int64
}

// Option configures a Reader.
type Option func(*options)

// WithTopologies selects which topologies the reader emits. The default is
// triangles only. Grid and volume objects are emitted with raw arrays and a
// nil Mesh.
func WithTopologies(ts ...Topology) Option {
	return func(o *options) {
		o.topologies = make(map[Topology]bool, len(ts))
		for _, t := range ts {
			o.topologies[t] = true
		}
	}
}

// WithSkipHandler registers fn to be called for every skipped object.
func WithSkipHandler(fn func(SkipEvent)) Option {
	return func(o *options) {
		o.onSkip = fn
	}
}

// WithLogger logs skipped objects at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxFrameSize bounds frame payloads and decompressed arrays.
func WithMaxFrameSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFrameSize = n
		}
	}
}

// withAllTopologies makes the reader emit every object.
func withAllTopologies() Option {
	return func(o *options) {
		o.all = true
	}
}

// Stats lists object positions by outcome.
type Stats struct {
	Emitted *roaring.Bitmap
	Skipped *roaring.Bitmap
	Failed  *roaring.Bitmap
}

// Reader walks a container stream one object at a time. It buffers at most
// one object and never closes the underlying reader.
//
// A Reader is single-pass and not safe for concurrent use.
type Reader struct {
	cr     *countingReader
	o      options
	header header
	codec  codec.Codec

	pos  int
	done bool
	err  error // sticky

	emitted *roaring.Bitmap
	skipped *roaring.Bitmap
	failed  *roaring.Bitmap
}

// NewReader parses the stream header. A stream that is not a container, or
// whose header is damaged, fails with *ContainerFormatError.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	o := options{
		topologies:   map[Topology]bool{TopologyTriangles: true},
		logger:       slog.New(slog.DiscardHandler),
		maxFrameSize: DefaultMaxFrameSize,
	}
	for _, fn := range opts {
		fn(&o)
	}

	cr := &countingReader{r: r}
	var b [HeaderSize]byte
	if _, err := io.ReadFull(cr, b[:]); err != nil {
		return nil, &ContainerFormatError{Offset: 0, Err: ioErr(err)}
	}
	h, err := parseHeader(b[:])
	if err != nil {
		return nil, &ContainerFormatError{Offset: 0, Err: err}
	}

	return &Reader{
		cr:      cr,
		o:       o,
		header:  h,
		codec:   codec.CBOR{},
		emitted: roaring.New(),
		skipped: roaring.New(),
		failed:  roaring.New(),
	}, nil
}

// ProjectID returns the project UUID recorded in the header.
func (r *Reader) ProjectID() uuid.UUID { return r.header.Project }

// Next returns the next object with a requested topology, or io.EOF after the
// end frame. Objects with other topologies are consumed and skipped.
//
// A malformed object yields *ObjectDecodeError. When all of its frames were
// read the reader can continue with the next object; otherwise the error is
// returned again by every later call.
func (r *Reader) Next() (*Object, error) {
	for {
		if r.err != nil {
			return nil, r.err
		}
		if r.done {
			return nil, io.EOF
		}
		obj, err := r.next()
		if err != nil || obj != nil {
			return obj, err
		}
	}
}

// All returns an iterator over the remaining objects. Iteration stops after
// io.EOF or a sticky error; a recoverable *ObjectDecodeError is yielded and
// iteration continues.
func (r *Reader) All() iter.Seq2[*Object, error] {
	return func(yield func(*Object, error) bool) {
		for {
			obj, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(obj, err) {
				return
			}
			if err != nil && r.err != nil {
				return
			}
		}
	}
}

// Stats returns copies of the position sets seen so far.
func (r *Reader) Stats() Stats {
	return Stats{
		Emitted: r.emitted.Clone(),
		Skipped: r.skipped.Clone(),
		Failed:  r.failed.Clone(),
	}
}

func (r *Reader) fail(err error) (*Object, error) {
	r.err = err
	return nil, err
}

// next reads one object. It returns (nil, nil) for a skipped object.
func (r *Reader) next() (*Object, error) {
	f, err := readFrame(r.cr, r.o.maxFrameSize, false)
	if err != nil {
		if errors.Is(err, errCleanEOF) {
			err = fmt.Errorf("%w: missing end frame", ErrTruncated)
		}
		return r.fail(&ContainerFormatError{Offset: f.offset, Err: err})
	}

	switch f.typ {
	case frameEnd:
		return r.finish(f)
	case frameObject:
	default:
		return r.fail(&ContainerFormatError{Offset: f.offset, Err: fmt.Errorf("%w: %s frame outside an object", ErrUnexpectedFrame, f.typ)})
	}

	pos := r.pos
	r.pos++

	var desc ObjectDescriptor
	if err := r.codec.Unmarshal(f.payload, &desc); err != nil {
		// Without a descriptor the array frames cannot be counted.
		r.failed.Add(uint32(pos))
		return r.fail(&ObjectDecodeError{Position: pos, Err: fmt.Errorf("%w: %w", ErrDescriptor, err)})
	}

	keep := r.o.all || r.o.topologies[desc.Topology]

	var payloads [][]byte
	if keep {
		payloads = make([][]byte, len(desc.Arrays))
	}
	for i, a := range desc.Arrays {
		af, err := readFrame(r.cr, r.o.maxFrameSize, !keep)
		if err == nil && af.typ != frameArray {
			err = fmt.Errorf("%w: %s frame inside object", ErrUnexpectedFrame, af.typ)
		}
		if err != nil {
			if errors.Is(err, errCleanEOF) {
				err = ErrTruncated
			}
			r.failed.Add(uint32(pos))
			return r.fail(&ObjectDecodeError{Position: pos, Name: desc.Name, Err: fmt.Errorf("array %q: %w", a.Name, err)})
		}
		if keep {
			payloads[i] = af.payload
		}
	}

	if !keep {
		r.skipped.Add(uint32(pos))
		r.o.logger.Debug("container object skipped",
			slog.Int("position", pos),
			slog.String("name", desc.Name),
			slog.String("topology", string(desc.Topology)),
		)
		if r.o.onSkip != nil {
			r.o.onSkip(SkipEvent{Position: pos, Name: desc.Name, Topology: desc.Topology})
		}
		return nil, nil
	}

	obj, err := buildObject(pos, desc, payloads, r.o.maxFrameSize)
	if err != nil {
		// Every frame of the object was consumed, so the stream stays usable.
		r.failed.Add(uint32(pos))
		return nil, &ObjectDecodeError{Position: pos, Name: desc.Name, Err: err}
	}
	r.emitted.Add(uint32(pos))
	return obj, nil
}

func (r *Reader) finish(f frame) (*Object, error) {
	var t trailer
	if err := r.codec.Unmarshal(f.payload, &t); err != nil {
		return r.fail(&ContainerFormatError{Offset: f.offset, Err: fmt.Errorf("%w: %w", ErrTrailer, err)})
	}
	if t.Objects != r.pos {
		return r.fail(&ContainerFormatError{Offset: f.offset, Err: fmt.Errorf("%w: %d objects recorded, %d read", ErrTrailer, t.Objects, r.pos)})
	}
	r.done = true
	return nil, io.EOF
}

// StreamToUnstructs reads every requested object from r and returns their
// meshes. On error it returns the meshes read before the failure together
// with the error. r is never closed.
func StreamToUnstructs(r io.Reader, opts ...Option) ([]*mesh.UnstructuredData, error) {
	cr, err := NewReader(r, opts...)
	if err != nil {
		return nil, err
	}
	var out []*mesh.UnstructuredData
	for obj, err := range cr.All() {
		if err != nil {
			return out, err
		}
		if obj.Mesh != nil {
			out = append(out, obj.Mesh)
		}
	}
	return out, nil
}
