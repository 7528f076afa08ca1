package container

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/hupe1980/subsurf/codec"
	"github.com/hupe1980/subsurf/mesh"
)

type writerOptions struct {
	compression Compression
	project     uuid.UUID
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithCompression sets the array compression (default zstd).
func WithCompression(c Compression) WriterOption {
	return func(o *writerOptions) {
		o.compression = c
	}
}

// WithProjectID records id in the header instead of a random UUID.
func WithProjectID(id uuid.UUID) WriterOption {
	return func(o *writerOptions) {
		o.project = id
	}
}

// Writer produces a container stream. Close writes the end frame; it does not
// close the underlying writer.
type Writer struct {
	w       io.Writer
	o       writerOptions
	codec   codec.Codec
	objects int
	closed  bool
	err     error // sticky
}

// NewWriter writes the stream header to w.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	o := writerOptions{compression: CompressionZstd}
	for _, fn := range opts {
		fn(&o)
	}
	if o.project == uuid.Nil {
		o.project = uuid.New()
	}

	b := header{Version: Version, Project: o.project}.marshal()
	if _, err := w.Write(b[:]); err != nil {
		return nil, fmt.Errorf("container: write header: %w", err)
	}
	return &Writer{w: w, o: o, codec: codec.CBOR{}}, nil
}

// ProjectID returns the project UUID written to the header.
func (w *Writer) ProjectID() uuid.UUID { return w.o.project }

// WriteMesh writes d as one object. topology must match the mesh arity.
func (w *Writer) WriteMesh(name string, topology Topology, d *mesh.UnstructuredData) error {
	if d == nil {
		return fmt.Errorf("container: nil mesh for %q", name)
	}
	if topology.Arity() != d.Arity() {
		return fmt.Errorf("container: %s object %q needs arity %d, mesh has %d", topology, name, topology.Arity(), d.Arity())
	}
	arrays, raws := meshArrays(d)
	desc := ObjectDescriptor{
		Name:     name,
		Topology: topology,
		Arity:    d.Arity(),
		Vertices: uint64(d.NumVertices()),
		Cells:    uint64(d.NumCells()),
		Arrays:   arrays,
	}
	return w.WriteObject(desc, raws)
}

// WriteObject writes desc followed by one array frame per entry of arrays.
// arrays[i] holds the little-endian bytes described by desc.Arrays[i]. It is
// how grids, volumes and other objects without a mesh are written.
func (w *Writer) WriteObject(desc ObjectDescriptor, arrays [][]byte) error {
	if w.closed {
		return ErrClosed
	}
	if w.err != nil {
		return w.err
	}
	if len(arrays) != len(desc.Arrays) {
		return fmt.Errorf("container: object %q describes %d arrays, got %d", desc.Name, len(desc.Arrays), len(arrays))
	}
	for i, a := range desc.Arrays {
		n, ok := a.byteLen()
		if !ok || n != uint64(len(arrays[i])) {
			return fmt.Errorf("container: object %q array %q: %d bytes do not match %d x %s", desc.Name, a.Name, len(arrays[i]), a.Length, a.Kind)
		}
	}
	if desc.UID == "" {
		desc.UID = uuid.NewString()
	}

	// Encode everything first so a failure leaves no partial object behind.
	payload, err := w.codec.Marshal(desc)
	if err != nil {
		return fmt.Errorf("container: encode descriptor %q: %w", desc.Name, err)
	}
	encoded := make([][]byte, len(arrays))
	for i, raw := range arrays {
		encoded[i], err = encodeArray(raw, w.o.compression)
		if err != nil {
			return err
		}
	}

	if _, err := writeFrame(w.w, frameObject, payload); err != nil {
		return w.setErr(err)
	}
	for _, e := range encoded {
		if _, err := writeFrame(w.w, frameArray, e); err != nil {
			return w.setErr(err)
		}
	}
	w.objects++
	return nil
}

// Close writes the end frame. It is safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	payload, err := w.codec.Marshal(trailer{Objects: w.objects, Project: w.o.project.String()})
	if err != nil {
		return err
	}
	if _, err := writeFrame(w.w, frameEnd, payload); err != nil {
		return w.setErr(err)
	}
	return nil
}

func (w *Writer) setErr(err error) error {
	w.err = fmt.Errorf("container: write: %w", err)
	return w.err
}
