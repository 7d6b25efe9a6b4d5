package compute

import "github.com/eminamitani/MD-edamame/internal/tensor"

// CUDABackend is a placeholder until GPU kernels exist for the force fields.
// It reports itself unavailable and runs work on the CPU.
type CUDABackend struct {
	cpu *CPUBackend
}

func NewCUDABackend() *CUDABackend {
	return &CUDABackend{cpu: NewCPUBackend()}
}

func (c *CUDABackend) Name() string          { return "cuda (not available)" }
func (c *CUDABackend) Available() bool       { return false }
func (c *CUDABackend) Device() tensor.Device { return tensor.CUDA }
func (c *CUDABackend) Workers() int          { return c.cpu.Workers() }
func (c *CUDABackend) Cleanup()              {}

func (c *CUDABackend) ParallelFor(n, minChunk int, fn func(worker, start, end int)) {
	c.cpu.ParallelFor(n, minChunk, fn)
}
