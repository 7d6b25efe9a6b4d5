// Package compute provides the execution backends used by the force field
// and neighbor-list kernels.
//
// The package selects the best available backend at start-up:
//
//   - CUDA: reserved for GPU kernels, currently reported as unavailable
//   - CPU: chunked goroutine workers, one per logical core
//
// Kernels split their index range with [Backend.ParallelFor] and accumulate
// into per-worker buffers, which keeps the reduction order fixed for a given
// worker count:
//
//	backend := compute.GetBackend()
//	backend.ParallelFor(n, 64, func(worker, start, end int) {
//	    for i := start; i < end; i++ {
//	        // ...
//	    }
//	})
package compute
