package compositor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan HAL backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNilProvider is returned when a nil DeviceProvider is passed.
var ErrNilProvider = errors.New("compositor: nil DeviceProvider")

// Context owns (or borrows) the GPU device and queue every other object in
// this package is created on.
//
// A Context is safe for concurrent use; the objects built on it document
// their own rules.
type Context struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string

	// external is set when the device belongs to a host application.
	external bool

	mu     sync.Mutex
	closed bool
}

// NewContext opens a GPU device on the best available adapter: a discrete
// GPU, else an integrated GPU, else (unless WithHardwareOnly) the first
// adapter the backend reports.
//
// It returns ErrAdapterNotFound when the backend is not linked or reports no
// usable adapter, and a *DeviceCreationError when the adapter refuses to
// open a device.
func NewContext(opts ...ContextOption) (*Context, error) {
	o := defaultContextOptions()
	for _, opt := range opts {
		opt(&o)
	}

	backend, ok := hal.GetBackend(o.backend)
	if !ok {
		return nil, fmt.Errorf("%w: backend %v not available", ErrAdapterNotFound, o.backend)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, &DeviceCreationError{Reason: fmt.Errorf("create instance: %w", err)}
	}
	return newContextFromInstance(instance, o)
}

// newContextFromInstance selects an adapter on instance and opens a device.
// The instance is destroyed on failure and owned by the Context on success.
func newContextFromInstance(instance hal.Instance, o contextOptions) (*Context, error) {
	adapters := instance.EnumerateAdapters(nil)
	selected := selectAdapter(adapters, o.hardwareOnly)
	if selected == nil {
		instance.Destroy()
		return nil, ErrAdapterNotFound
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, &DeviceCreationError{Adapter: selected.Info.Name, Reason: err}
	}

	Logger().Info("compositor: GPU adapter selected",
		"name", selected.Info.Name, "type", selected.Info.DeviceType)

	return &Context{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
	}, nil
}

// selectAdapter prefers discrete over integrated GPUs. Other adapter types
// are used only when hardwareOnly is false.
func selectAdapter(adapters []hal.ExposedAdapter, hardwareOnly bool) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	if hardwareOnly {
		return nil
	}
	return &adapters[0]
}

// NewContextFromProvider shares the device of a host application, such as a
// gogpu window. The provider must expose its HAL objects through
// HalDevice() and HalQueue(). Close does not destroy a shared device.
func NewContextFromProvider(provider gpucontext.DeviceProvider) (*Context, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("compositor: provider %T does not expose HAL types", provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("compositor: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("compositor: provider HalQueue is not hal.Queue")
	}
	Logger().Info("compositor: using shared GPU device", "surface_format", provider.SurfaceFormat())
	return &Context{
		device:   device,
		queue:    queue,
		adapter:  "shared",
		external: true,
	}, nil
}

// Device returns the HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// AdapterName returns the name of the adapter the device was opened on, or
// "shared" for a provider-backed context.
func (c *Context) AdapterName() string { return c.adapter }

// Shared reports whether the device belongs to a host application.
func (c *Context) Shared() bool { return c.external }

// Close destroys the device and instance if the Context created them.
// Objects created on the Context must be closed first.
// Safe to call more than once.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.external {
		return
	}
	if c.device != nil {
		c.device.Destroy()
	}
	if c.instance != nil {
		c.instance.Destroy()
	}
}
