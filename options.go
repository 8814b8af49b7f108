package compositor

import "github.com/gogpu/gputypes"

// ContextOption configures a Context during creation.
//
// Example:
//
//	// Default: Vulkan, any adapter
//	ctx, err := compositor.NewContext()
//
//	// Refuse software adapters
//	ctx, err := compositor.NewContext(compositor.WithHardwareOnly())
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	backend      gputypes.Backend
	hardwareOnly bool
}

// defaultContextOptions returns the default context options.
func defaultContextOptions() contextOptions {
	return contextOptions{
		backend: gputypes.BackendVulkan,
	}
}

// WithBackend selects the HAL backend. The backend package must be linked
// into the binary; Vulkan is linked by this package.
func WithBackend(b gputypes.Backend) ContextOption {
	return func(o *contextOptions) {
		o.backend = b
	}
}

// WithHardwareOnly restricts adapter selection to discrete and integrated
// GPUs. Without it, the first enumerated adapter is used as a fallback.
func WithHardwareOnly() ContextOption {
	return func(o *contextOptions) {
		o.hardwareOnly = true
	}
}

// Option configures a Compositor.
type Option func(*options)

// options holds optional configuration for Compositor creation.
type options struct {
	spirv   bool
	prewarm []gputypes.TextureFormat
}

// defaultOptions returns the default compositor options.
func defaultOptions() options {
	return options{}
}

// WithSPIRVShaders compiles the layer shader from WGSL to SPIR-V with naga
// before handing it to the HAL, for drivers that do not accept WGSL.
func WithSPIRVShaders() Option {
	return func(o *options) {
		o.spirv = true
	}
}

// WithPrewarm creates every blend pipeline for the given target formats at
// construction instead of on first use.
func WithPrewarm(formats ...gputypes.TextureFormat) Option {
	return func(o *options) {
		o.prewarm = append(o.prewarm, formats...)
	}
}
