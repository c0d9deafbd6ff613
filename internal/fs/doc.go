// Package fs provides the filesystem seam used for snapshot files.
//
//   - [FileSystem]: create, open, rename and remove files
//   - [LocalFS]: the os-backed implementation, available as [Default]
//   - [FaultyFS]: test wrapper that injects write, sync and rename failures
//
// Operations take no context.Context: local file calls are not interruptible
// at the syscall level.
package fs
