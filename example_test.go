package subsurf_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hupe1980/subsurf"
	"github.com/hupe1980/subsurf/blobstore"
	"github.com/hupe1980/subsurf/container"
	"github.com/hupe1980/subsurf/element"
	"github.com/hupe1980/subsurf/mesh"
)

func exampleContainer() []byte {
	surf, _ := mesh.FromArray(
		[][3]float64{{0, 0, -100}, {10, 0, -105}, {0, 10, -102}},
		[][]int{{0, 1, 2}},
	)
	well, _ := mesh.FromArray([][3]float64{{5, 5, 0}, {5, 5, -120}}, [][]int{{0, 1}})

	var buf bytes.Buffer
	w, _ := container.NewWriter(&buf)
	_ = w.WriteMesh("horizon", container.TopologyTriangles, surf)
	_ = w.WriteMesh("well-7", container.TopologyLines, well)
	_ = w.Close()
	return buf.Bytes()
}

func ExampleReadContainer() {
	ctx := context.Background()

	meshes, err := subsurf.ReadContainer(ctx, bytes.NewReader(exampleContainer()))
	if err != nil {
		panic(err)
	}

	surf, err := element.NewTriSurf(meshes[0])
	if err != nil {
		panic(err)
	}
	fmt.Println(len(meshes), surf.Role(), surf.Mesh().NumCells())
	// Output: 1 trisurf 1
}

func ExampleExportContainer() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	metrics := &subsurf.BasicMetricsCollector{}

	res, err := subsurf.ExportContainer(ctx, bytes.NewReader(exampleContainer()), store,
		subsurf.WithTopologies(container.TopologyTriangles, container.TopologyLines),
		subsurf.WithPrefix("field-a/"),
		subsurf.WithMetricsCollector(metrics),
	)
	if err != nil {
		panic(err)
	}
	for _, r := range res {
		fmt.Println(r.Position, r.Key)
	}
	fmt.Println("exported:", metrics.GetStats().ExportCount)
	// Output:
	// 0 field-a/horizon.le
	// 1 field-a/well-7.le
	// exported: 2
}
