// Package container reads and writes multi-object geometry containers.
//
// A container bundles named objects (point sets, line sets, triangle and quad
// surfaces, grids, volumes) after the OMF element model. The stream is a
// 32-byte header followed by CRC-checked frames:
//
//	header  "GEOC" version u32 project[16] flags u32 crc32 u32
//	frame   crc32 u32 | type u8 | len u32 | payload
//
// Each object is an object frame carrying a CBOR ObjectDescriptor, followed by
// one array frame per described array. Array payloads may be compressed with
// zstd, LZ4 or zlib. An end frame closes the stream.
//
// Reader walks the frames sequentially and holds at most one object in
// memory, so arbitrarily large containers can be streamed:
//
//	r, err := container.NewReader(f)
//	if err != nil {
//		return err
//	}
//	for obj, err := range r.All() {
//		if err != nil {
//			return err
//		}
//		use(obj.Mesh)
//	}
//
// By default only triangle surfaces are emitted; everything else is skipped
// silently. Use WithTopologies to select others and WithSkipHandler or
// WithLogger to observe skips. Project gives random access by position and
// name after reading the whole stream.
package container
