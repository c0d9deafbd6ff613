// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Provides cache-line aligned heap buffers. They back regions that are not
// obtained through an anonymous mapping, mostly in tests and small pools.
package mem
