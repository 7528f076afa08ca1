package persistence

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/hupe1980/subsurf/codec"
	"github.com/hupe1980/subsurf/internal/fsutil"
	"github.com/hupe1980/subsurf/internal/mmap"
	"github.com/hupe1980/subsurf/mesh"
	"github.com/hupe1980/subsurf/resource"
)

type options struct {
	sidecar bool
	perm    os.FileMode
	logger  *slog.Logger
	prefix  string
	rc      *resource.Controller
}

// Option configures WriteNamed and Archive.
type Option func(*options)

// WithSidecar also writes a <name>.json header next to the artifact.
func WithSidecar() Option {
	return func(o *options) {
		o.sidecar = true
	}
}

// WithPerm sets the file mode of written files (default 0644).
func WithPerm(perm os.FileMode) Option {
	return func(o *options) {
		o.perm = perm
	}
}

// WithLogger sets the logger used for write diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrefix places archive blobs under prefix (e.g. "project-a/").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithController throttles archive IO through rc.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

func applyOptions(opts []Option) options {
	o := options{
		perm:   0o644,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// SidecarHeader is the JSON description written next to an artifact.
type SidecarHeader struct {
	Name             string          `json:"name"`
	Format           string          `json:"format"`
	Version          uint32          `json:"version"`
	Vertices         int             `json:"vertices"`
	Cells            int             `json:"cells"`
	Arity            int             `json:"arity"`
	VertexAttributes []AttributeInfo `json:"vertex_attributes"`
	CellAttributes   []AttributeInfo `json:"cell_attributes"`
	Bounds           [2][3]float64   `json:"bounds"`
	Size             int64           `json:"size"`
	CRC32            uint32          `json:"crc32"`
	BLAKE3           string          `json:"blake3"`
}

// AttributeInfo names one attribute and its element kind.
type AttributeInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// SanitizeName maps a logical name to a file stem. Bytes outside
// [A-Za-z0-9._-] and a leading '.' are escaped as %XX, so the result never
// escapes the target directory or hides the file, and distinct names map to
// distinct stems.
func SanitizeName(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	const digits = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			sb.WriteByte(c)
		case c == '.' && i > 0:
			sb.WriteByte(c)
		default:
			sb.WriteByte('%')
			sb.WriteByte(digits[c>>4])
			sb.WriteByte(digits[c&0xf])
		}
	}
	return sb.String(), nil
}

// ArtifactPath returns the path WriteNamed uses for name inside dir.
func ArtifactPath(dir, name string) (string, error) {
	stem, err := SanitizeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stem+ArtifactExt), nil
}

// WriteNamed persists d as dir/<sanitized name>.le and returns the path.
//
// The directory is created if needed. The artifact is written to a temp file,
// synced and renamed into place, so the final path holds either the previous
// content or the complete new content. Repeated writes of equal data produce
// byte-identical files. Failures are reported as *IOWriteError.
//
// With WithSidecar the sidecar is written after the artifact. An error with
// Op "write sidecar" or "encode sidecar" means the new artifact was already
// committed and only its sidecar is missing or stale.
func WriteNamed(name string, d *mesh.UnstructuredData, dir string, opts ...Option) (string, error) {
	o := applyOptions(opts)

	path, err := ArtifactPath(dir, name)
	if err != nil {
		return "", err
	}
	if d == nil {
		return "", &IOWriteError{Op: "encode", Path: path, Err: fmt.Errorf("nil mesh")}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOWriteError{Op: "mkdir", Path: dir, Err: err}
	}

	body, header, err := encodeBody(d)
	if err != nil {
		return "", &IOWriteError{Op: "encode", Path: path, Err: err}
	}

	hasher := blake3.New()
	err = fsutil.WriteAtomic(path, o.perm, func(w io.Writer) error {
		mw := io.MultiWriter(w, hasher)
		if err := NewBinaryWriter(mw).WriteHeader(header); err != nil {
			return err
		}
		_, err := mw.Write(body)
		return err
	})
	if err != nil {
		return "", &IOWriteError{Op: "write", Path: path, Err: err}
	}

	o.logger.Debug("artifact written",
		slog.String("name", name),
		slog.String("path", path),
		slog.Int("vertices", d.NumVertices()),
		slog.Int("cells", d.NumCells()),
	)

	if o.sidecar {
		sc := newSidecar(name, d, header, hasher.Sum(nil))
		scPath := strings.TrimSuffix(path, ArtifactExt) + SidecarExt
		if err := writeSidecar(scPath, sc, o.perm); err != nil {
			return "", err
		}
	}
	return path, nil
}

func newSidecar(name string, d *mesh.UnstructuredData, h *FileHeader, digest []byte) *SidecarHeader {
	lo, hi := d.Bounds()
	sc := &SidecarHeader{
		Name:             name,
		Format:           "SSUD",
		Version:          h.Version,
		Vertices:         d.NumVertices(),
		Cells:            d.NumCells(),
		Arity:            d.Arity(),
		VertexAttributes: []AttributeInfo{},
		CellAttributes:   []AttributeInfo{},
		Bounds:           [2][3]float64{lo, hi},
		Size:             int64(HeaderSize + h.BodyLength),
		CRC32:            h.Checksum,
		BLAKE3:           hex.EncodeToString(digest),
	}
	for _, e := range sortedAttributes(d) {
		info := AttributeInfo{Name: e.name, Kind: e.attr.Kind().String()}
		if e.loc == mesh.OnVertex {
			sc.VertexAttributes = append(sc.VertexAttributes, info)
		} else {
			sc.CellAttributes = append(sc.CellAttributes, info)
		}
	}
	return sc
}

func writeSidecar(path string, sc *SidecarHeader, perm os.FileMode) error {
	b, err := codec.GoJSON{}.MarshalIndent(sc)
	if err != nil {
		return &IOWriteError{Op: "encode sidecar", Path: path, Err: err}
	}
	err = fsutil.WriteAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(append(b, '\n'))
		return err
	})
	if err != nil {
		return &IOWriteError{Op: "write sidecar", Path: path, Err: err}
	}
	return nil
}

// ReadSidecar loads the JSON header written by WithSidecar.
func ReadSidecar(name, dir string) (*SidecarHeader, error) {
	path, err := ArtifactPath(dir, name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(strings.TrimSuffix(path, ArtifactExt) + SidecarExt)
	if err != nil {
		return nil, err
	}
	var sc SidecarHeader
	if err := (codec.GoJSON{}).Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("persistence: parse sidecar: %w", err)
	}
	return &sc, nil
}

// ReadNamed loads the artifact WriteNamed stored for name in dir. The file is
// memory-mapped for decoding and unmapped before returning.
func ReadNamed(name, dir string) (*mesh.UnstructuredData, error) {
	path, err := ArtifactPath(dir, name)
	if err != nil {
		return nil, err
	}
	return ReadFile(path)
}

// ReadFile decodes the artifact at path.
func ReadFile(path string) (*mesh.UnstructuredData, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	_ = m.Advise(mmap.HintSequential)

	// Decode copies everything it keeps, so nothing aliases the mapping.
	d, err := Decode(m.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
