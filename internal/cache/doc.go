// Package cache provides an LRU cache for immutable blob blocks.
//
// Remote snapshot stores serve reads in fixed-size blocks; the cache keeps
// the most recently used ones in memory and charges their size against an
// optional resource.Controller budget.
package cache
