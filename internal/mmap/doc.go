// Package mmap maps snapshot files read-only.
//
// LocalStore opens every blob through a Region and advises Sequential,
// since snapshots are decoded in one pass. Unix builds use mmap(2) and
// madvise(2); Windows builds use a file mapping view and ignore hints.
package mmap
