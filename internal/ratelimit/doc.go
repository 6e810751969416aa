// Package ratelimit implements a per-client fixed-window admission
// controller. Each key gets a counter created exactly once; the window is
// reset by the first request that arrives after it expires, and the whole
// counter map is cleared periodically by a sweeper.
package ratelimit
