// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "geodata",
//	    s3.WithPrefix("projects/north/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	archive := persistence.NewArchive(store)
//
// Reads use ranged GETs, streaming writes use the multipart uploader, and
// small Puts carry a CRC32C checksum that S3 verifies on receipt.
package s3
