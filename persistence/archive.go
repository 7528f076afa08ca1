package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/hupe1980/subsurf/blobstore"
	"github.com/hupe1980/subsurf/codec"
	"github.com/hupe1980/subsurf/mesh"
	"github.com/hupe1980/subsurf/resource"
)

// Archive stores named artifacts in a blobstore.BlobStore using the same
// naming and format as WriteNamed. It is safe for concurrent use when the
// underlying store is.
type Archive struct {
	store   blobstore.BlobStore
	prefix  string
	sidecar bool
	rc      *resource.Controller
	logger  *slog.Logger
}

// NewArchive wraps store. WithSidecar, WithPrefix, WithController and
// WithLogger apply.
func NewArchive(store blobstore.BlobStore, opts ...Option) *Archive {
	o := applyOptions(opts)
	return &Archive{
		store:   store,
		prefix:  o.prefix,
		sidecar: o.sidecar,
		rc:      o.rc,
		logger:  o.logger,
	}
}

// Key returns the blob name used for the artifact called name.
func (a *Archive) Key(name string) (string, error) {
	stem, err := SanitizeName(name)
	if err != nil {
		return "", err
	}
	return a.prefix + stem + ArtifactExt, nil
}

// Put encodes d and stores it under name, replacing any previous artifact.
// It returns the blob key. Failures are reported as *IOWriteError. With
// WithSidecar the sidecar is stored after the artifact; an error with Op
// "put sidecar" means the new artifact is already in place.
func (a *Archive) Put(ctx context.Context, name string, d *mesh.UnstructuredData) (string, error) {
	key, err := a.Key(name)
	if err != nil {
		return "", err
	}
	if d == nil {
		return "", &IOWriteError{Op: "encode", Path: key, Err: errors.New("nil mesh")}
	}

	body, header, err := encodeBody(d)
	if err != nil {
		return "", &IOWriteError{Op: "encode", Path: key, Err: err}
	}
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(body))
	if err := NewBinaryWriter(&buf).WriteHeader(header); err != nil {
		return "", &IOWriteError{Op: "encode", Path: key, Err: err}
	}
	buf.Write(body)

	if err := a.rc.AcquireIO(ctx, buf.Len()); err != nil {
		return "", &IOWriteError{Op: "put", Path: key, Err: err}
	}
	if err := a.store.Put(ctx, key, buf.Bytes()); err != nil {
		return "", &IOWriteError{Op: "put", Path: key, Err: err}
	}

	if a.sidecar {
		digest := blake3.Sum256(buf.Bytes())
		sc := newSidecar(name, d, header, digest[:])
		b, err := codec.GoJSON{}.MarshalIndent(sc)
		if err != nil {
			return "", &IOWriteError{Op: "encode sidecar", Path: key, Err: err}
		}
		scKey := strings.TrimSuffix(key, ArtifactExt) + SidecarExt
		if err := a.store.Put(ctx, scKey, append(b, '\n')); err != nil {
			return "", &IOWriteError{Op: "put sidecar", Path: scKey, Err: err}
		}
	}

	a.logger.Debug("artifact stored",
		slog.String("name", name),
		slog.String("key", key),
		slog.Int("bytes", buf.Len()),
	)
	return key, nil
}

// Get loads and decodes the artifact stored under name.
func (a *Archive) Get(ctx context.Context, name string) (*mesh.UnstructuredData, error) {
	key, err := a.Key(name)
	if err != nil {
		return nil, err
	}
	blob, err := a.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	if err := a.rc.AcquireIO(ctx, int(blob.Size())); err != nil {
		return nil, err
	}

	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		d, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	}

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", key, &TruncatedDataError{Need: HeaderSize, What: "header"})
		}
		return nil, err
	}
	defer rc.Close()

	d, err := DecodeFrom(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Stat reads only the header of the artifact stored under name.
func (a *Archive) Stat(ctx context.Context, name string) (*FileHeader, error) {
	key, err := a.Key(name)
	if err != nil {
		return nil, err
	}
	blob, err := a.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	buf := make([]byte, HeaderSize)
	n, err := blob.ReadAt(ctx, buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return ReadHeader(buf[:n])
}

// List returns the names of all artifacts in the archive, as accepted by Get.
// Keys that SanitizeName could not have produced are skipped.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	keys, err := a.store.List(ctx, a.prefix)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		rel := strings.TrimPrefix(k, a.prefix)
		if strings.Contains(rel, "/") || !strings.HasSuffix(rel, ArtifactExt) {
			continue
		}
		name, err := url.PathUnescape(strings.TrimSuffix(rel, ArtifactExt))
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Delete removes the artifact and its sidecar.
func (a *Archive) Delete(ctx context.Context, name string) error {
	key, err := a.Key(name)
	if err != nil {
		return err
	}
	if err := a.store.Delete(ctx, key); err != nil {
		return err
	}
	return a.store.Delete(ctx, strings.TrimSuffix(key, ArtifactExt)+SidecarExt)
}
