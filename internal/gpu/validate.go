// Package gpu validates compiled WGSL kernels against a real WebGPU device.
// It only creates shader modules; it never allocates buffers or dispatches
// work. Validation is optional: callers without a GPU (or without the
// native library) get an error from New and skip it.
package gpu

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"
)

// Validator holds a WebGPU device used to compile shader modules.
type Validator struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
}

// New initializes a WebGPU instance, adapter and device. The native
// library panics when it is missing, so that is recovered into an error.
func New() (v *Validator, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = fmt.Errorf("gpu: native library not available: %v", r)
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("gpu: request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}

	return &Validator{instance: instance, adapter: adapter, device: device}, nil
}

// Validate compiles a rendered kernel to a shader module on the device.
func (v *Validator) Validate(source string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gpu: shader compilation failed: %v", r)
		}
	}()

	shader := v.device.CreateShaderModuleWGSL(source)
	if shader == nil {
		return fmt.Errorf("gpu: shader compilation failed")
	}
	shader.Release()
	return nil
}

// Release frees the device, adapter and instance.
func (v *Validator) Release() {
	if v.device != nil {
		v.device.Release()
	}
	if v.adapter != nil {
		v.adapter.Release()
	}
	if v.instance != nil {
		v.instance.Release()
	}
}
