package subsurf

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/subsurf/blobstore"
	"github.com/hupe1980/subsurf/container"
	"github.com/hupe1980/subsurf/mesh"
	"github.com/hupe1980/subsurf/persistence"
	"github.com/hupe1980/subsurf/resource"
)

// ReadContainer streams the requested objects out of the container in r and
// returns their meshes in container order. On failure the meshes decoded
// before the error are returned with it. r is never closed.
func ReadContainer(ctx context.Context, r io.Reader, opts ...Option) ([]*mesh.UnstructuredData, error) {
	o := applyOptions(opts)

	cr, err := container.NewReader(resource.NewRateLimitedReader(ctx, r, o.rc), o.readerOptions(ctx)...)
	if err != nil {
		return nil, translateError(err)
	}

	var out []*mesh.UnstructuredData
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		obj, err := o.next(ctx, cr)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, translateError(err)
		}
		if obj.Mesh != nil {
			out = append(out, obj.Mesh)
		}
	}
}

// ExportResult describes one artifact written by ExportContainer.
type ExportResult struct {
	// Position is the object's index in the container.
	Position int
	// Name is the artifact name, unique within one export.
	Name     string
	Key      string
	Vertices int
	Cells    int
}

// ExportContainer reads the container in r and stores every requested mesh
// as an artifact in store. Writes run concurrently, bounded by WithController
// and WithConcurrency; reading stops at the first error.
//
// Objects without a name are exported as "object-<position>". A name that
// was already used in this export gets a "-<position>" suffix.
//
// The results of all completed writes are returned sorted by position, also
// when an error is returned.
func ExportContainer(ctx context.Context, r io.Reader, store blobstore.BlobStore, opts ...Option) ([]ExportResult, error) {
	o := applyOptions(opts)
	logger := o.logger.WithStore(o.prefix)

	archOpts := []persistence.Option{
		persistence.WithPrefix(o.prefix),
		persistence.WithController(o.rc),
		persistence.WithLogger(logger.Logger),
	}
	if o.sidecar {
		archOpts = append(archOpts, persistence.WithSidecar())
	}
	archive := persistence.NewArchive(store, archOpts...)

	cr, err := container.NewReader(resource.NewRateLimitedReader(ctx, r, o.rc), o.readerOptions(ctx)...)
	if err != nil {
		return nil, translateError(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	var (
		mu      sync.Mutex
		results []ExportResult
		readErr error
	)
	used := make(map[string]struct{})

	for {
		if err := gctx.Err(); err != nil {
			readErr = err
			break
		}
		obj, err := o.next(gctx, cr)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = translateError(err)
			break
		}
		if obj.Mesh == nil {
			continue
		}

		name := uniqueName(used, obj)
		size := meshBytes(obj.Mesh)
		if err := o.rc.AcquireWorker(gctx); err != nil {
			readErr = err
			break
		}
		if err := o.rc.AcquireMemory(gctx, size); err != nil {
			o.rc.ReleaseWorker()
			readErr = err
			break
		}

		g.Go(func() error {
			defer o.rc.ReleaseWorker()
			defer o.rc.ReleaseMemory(size)

			start := time.Now()
			key, err := archive.Put(gctx, name, obj.Mesh)
			o.metricsCollector.RecordExport(int(size), time.Since(start), err)
			logger.WithObject(name, obj.Position).LogExport(gctx, key, int(size), err)
			if err != nil {
				return fmt.Errorf("%w: export %q: %w", ErrStorage, name, err)
			}

			mu.Lock()
			results = append(results, ExportResult{
				Position: obj.Position,
				Name:     name,
				Key:      key,
				Vertices: obj.Mesh.NumVertices(),
				Cells:    obj.Mesh.NumCells(),
			})
			mu.Unlock()
			return nil
		})
	}

	// A failed write cancels gctx, so its error takes precedence over the
	// cancellation the read loop observed.
	err = g.Wait()
	if err == nil {
		err = readErr
	}

	slices.SortFunc(results, func(a, b ExportResult) int {
		return cmp.Compare(a.Position, b.Position)
	})
	logger.LogExportSummary(ctx, len(results), int(cr.Stats().Skipped.GetCardinality()), err)
	return results, err
}

// next reads one object and reports it to the metrics collector and logger.
func (o *options) next(ctx context.Context, cr *container.Reader) (*container.Object, error) {
	start := time.Now()
	obj, err := cr.Next()
	if errors.Is(err, io.EOF) {
		return nil, err
	}
	o.metricsCollector.RecordObject(time.Since(start), err)

	if err != nil {
		name, pos := "", -1
		var ode *container.ObjectDecodeError
		if errors.As(err, &ode) {
			name, pos = ode.Name, ode.Position
		}
		o.logger.LogObject(ctx, name, pos, 0, err)
		return nil, err
	}

	vertices := 0
	if obj.Mesh != nil {
		vertices = obj.Mesh.NumVertices()
	}
	o.logger.LogObject(ctx, obj.Name(), obj.Position, vertices, nil)
	return obj, nil
}

func uniqueName(used map[string]struct{}, obj *container.Object) string {
	name := obj.Name()
	stem, err := persistence.SanitizeName(name)
	if err != nil {
		name = fmt.Sprintf("object-%d", obj.Position)
		stem = name
	}
	if _, ok := used[stem]; ok {
		name = fmt.Sprintf("%s-%d", name, obj.Position)
		stem, _ = persistence.SanitizeName(name)
	}
	used[stem] = struct{}{}
	return name
}

// meshBytes estimates the in-memory size of d's geometry.
func meshBytes(d *mesh.UnstructuredData) int64 {
	return int64(d.NumVertices())*24 + int64(d.NumCells()*d.Arity())*4
}
