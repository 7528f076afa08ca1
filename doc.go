// Package subsurf moves 3-D geoscience geometry between a multi-object
// geometry container, an in-memory mesh and named binary artifacts.
//
// The building blocks live in subpackages:
//
//   - mesh: UnstructuredData, vertices plus fixed-arity cells with typed
//     vertex and cell attributes
//   - element: TriSurf and LineSet role wrappers
//   - container: streaming reader and writer for the GEOC container
//   - persistence: the artifact codec, atomic named writes and Archive
//   - wells: collar/survey/assay tables desurveyed into line meshes
//   - render: static plan and section plots
//   - blobstore: local, in-memory, MinIO and S3 artifact storage
//
// This package ties them together for the two common pipelines.
//
// # Quick Start
//
// Read every triangulated surface from a container:
//
//	f, _ := os.Open("project.geoc")
//	defer f.Close()
//	meshes, err := subsurf.ReadContainer(ctx, f)
//
// Export surfaces and line sets to S3, four writes at a time:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("geo/"))
//	res, err := subsurf.ExportContainer(ctx, f, store,
//	    subsurf.WithTopologies(container.TopologyTriangles, container.TopologyLines),
//	    subsurf.WithConcurrency(4),
//	    subsurf.WithSidecar(),
//	)
//
// # Errors
//
// Returned errors match ErrFormat, ErrInvalidMesh or ErrStorage with
// errors.Is. The typed errors of the subpackages remain reachable with
// errors.As.
package subsurf
