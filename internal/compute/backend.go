package compute

import (
	"fmt"
	"strings"

	"github.com/eminamitani/MD-edamame/internal/tensor"
)

// Backend runs data-parallel kernels on one device.
type Backend interface {
	Name() string
	Available() bool
	Device() tensor.Device
	// ParallelFor splits [0, n) into contiguous chunks and calls fn once per
	// chunk with the worker index that owns it. Calls for distinct workers
	// may run concurrently; the call returns when every chunk is done.
	ParallelFor(n, minChunk int, fn func(worker, start, end int))
	Workers() int
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelectBackend prefers an accelerator and falls back to the CPU.
func AutoSelectBackend() Backend {
	cuda := NewCUDABackend()
	if cuda.Available() {
		return cuda
	}
	return NewCPUBackend()
}

// ForDevice returns the backend for a device name. "auto" selects the best
// available one. Requesting an unavailable accelerator is an error.
func ForDevice(name string) (Backend, error) {
	if strings.EqualFold(strings.TrimSpace(name), "auto") {
		return AutoSelectBackend(), nil
	}
	dev, err := tensor.ParseDevice(name)
	if err != nil {
		return nil, err
	}
	switch dev {
	case tensor.CUDA:
		cuda := NewCUDABackend()
		if !cuda.Available() {
			return nil, fmt.Errorf("compute: %s", cuda.Name())
		}
		return cuda, nil
	default:
		return NewCPUBackend(), nil
	}
}
