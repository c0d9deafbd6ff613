// Package snapshot writes and reads point-in-time images of a size-class
// pool: a JSON header describing the bucket layout, counters and live slots,
// followed by the raw region bytes in compressed blocks.
//
// Layout:
//
//	[8]byte  magic "SLABSNAP"
//	uint32   header length (little endian)
//	[]byte   JSON Header
//	blocks   [uncompressed uint32][compressed uint32][data], compressed == 0 means stored
//
// Images are diagnostic. They are not meant to be mapped back into a live pool.
package snapshot
