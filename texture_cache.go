package compositor

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor/media"
	"github.com/gogpu/compositor/scene"
)

// TextureFormat is the pixel format of every cached texture.
const TextureFormat = gputypes.TextureFormatRGBA8Unorm

// TextureResource is a GPU-resident image owned by a TextureCache.
type TextureResource struct {
	id      scene.ContentID
	width   uint32
	height  uint32
	texture hal.Texture
	view    hal.TextureView
	uploads atomic.Uint64
}

// ID returns the content id the resource is cached under.
func (r *TextureResource) ID() scene.ContentID { return r.id }

// Width returns the texture width in pixels.
func (r *TextureResource) Width() uint32 { return r.width }

// Height returns the texture height in pixels.
func (r *TextureResource) Height() uint32 { return r.height }

// Format returns the texture pixel format.
func (r *TextureResource) Format() gputypes.TextureFormat { return TextureFormat }

// Uploads returns how many times pixel data has been written to the
// texture, including the initial upload.
func (r *TextureResource) Uploads() uint64 { return r.uploads.Load() }

// View returns the texture view bound when drawing the resource.
func (r *TextureResource) View() hal.TextureView { return r.view }

// TextureCache maps content ids to GPU textures.
//
// The cache guards its map, so different ids may be updated from different
// goroutines. Updates of the same id must be serialized by the caller.
type TextureCache struct {
	ctx *Context

	mu       sync.RWMutex
	textures map[scene.ContentID]*TextureResource
	// removed holds resources dropped from the map that a submitted frame
	// may still sample. They are destroyed by collect.
	removed []*TextureResource
	closed  bool

	// pool converts batches of images before upload.
	pool *media.Pool
}

// NewTextureCache returns an empty cache allocating on ctx.
func NewTextureCache(ctx *Context) *TextureCache {
	return &TextureCache{
		ctx:      ctx,
		textures: make(map[scene.ContentID]*TextureResource),
		pool:     media.NewPool(0),
	}
}

// Update uploads pixels for id.
//
// An unseen id gets a new width x height texture. A known id with the same
// size is overwritten in place without reallocation. A known id with a
// different size is rejected with ErrTextureSizeMismatch: nothing is
// uploaded and the existing texture keeps its content. Use Remove first to
// change the size of an id.
//
// pixels must be tightly packed RGBA, 4 bytes per pixel, row-major.
func (c *TextureCache) Update(id scene.ContentID, width, height uint32, pixels []byte) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: texture %dx%d", ErrInvalidDimensions, width, height)
	}
	if want := uint64(width) * uint64(height) * 4; uint64(len(pixels)) != want {
		return fmt.Errorf("%w: got %d bytes, want %d for %dx%d", ErrInvalidPixelData, len(pixels), want, width, height)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	res, ok := c.textures[id]
	if ok && (res.width != width || res.height != height) {
		Logger().Warn("compositor: texture update skipped, size differs from allocation",
			"id", id, "allocated", fmt.Sprintf("%dx%d", res.width, res.height),
			"requested", fmt.Sprintf("%dx%d", width, height))
		return fmt.Errorf("%w: %s is %dx%d, update is %dx%d",
			ErrTextureSizeMismatch, id, res.width, res.height, width, height)
	}
	if !ok {
		var err error
		res, err = c.allocate(id, width, height)
		if err != nil {
			return err
		}
		c.textures[id] = res
	}

	c.ctx.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: res.texture, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: width * 4, RowsPerImage: height},
		&hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	res.uploads.Add(1)
	return nil
}

// UpdateImage uploads img for id with the same rules as Update.
func (c *TextureCache) UpdateImage(id scene.ContentID, img image.Image) error {
	p := media.PackImage(img)
	return c.Update(id, p.Width, p.Height, p.Pixels)
}

// UpdateImages converts images in parallel, then uploads each with the
// rules of Update. Every id is attempted; the failures are joined.
func (c *TextureCache) UpdateImages(images map[scene.ContentID]image.Image) error {
	ids := make([]scene.ContentID, 0, len(images))
	imgs := make([]image.Image, 0, len(images))
	for id, img := range images {
		ids = append(ids, id)
		imgs = append(imgs, img)
	}

	var errs []error
	for i, p := range media.PackAll(c.pool, imgs) {
		if err := c.Update(ids[i], p.Width, p.Height, p.Pixels); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ids[i], err))
		}
	}
	return errors.Join(errs...)
}

func (c *TextureCache) allocate(id scene.ContentID, width, height uint32) (*TextureResource, error) {
	device := c.ctx.device
	label := "content_" + id.String()
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", id, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        TextureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %s: %w", id, err)
	}
	Logger().Debug("compositor: texture allocated", "id", id, "width", width, "height", height)
	return &TextureResource{id: id, width: width, height: height, texture: tex, view: view}, nil
}

// Lookup returns the resource cached under id. It never allocates.
func (c *TextureCache) Lookup(id scene.ContentID) (*TextureResource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.textures[id]
	return res, ok
}

// Remove drops id from the cache and reports whether it was present.
// The GPU texture is released once no submitted frame can still use it.
func (c *TextureCache) Remove(id scene.ContentID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.textures[id]
	if !ok {
		return false
	}
	delete(c.textures, id)
	c.removed = append(c.removed, res)
	return true
}

// Len returns the number of cached resources.
func (c *TextureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.textures)
}

// collect destroys removed resources. The compositor calls it after the
// previous frame's work has completed.
func (c *TextureCache) collect() {
	c.mu.Lock()
	removed := c.removed
	c.removed = nil
	c.mu.Unlock()
	for _, res := range removed {
		c.destroy(res)
	}
}

func (c *TextureCache) destroy(res *TextureResource) {
	if res.view != nil {
		c.ctx.device.DestroyTextureView(res.view)
		res.view = nil
	}
	if res.texture != nil {
		c.ctx.device.DestroyTexture(res.texture)
		res.texture = nil
	}
}

// Close destroys every cached texture. Compositors using the cache must be
// closed first. Safe to call more than once.
func (c *TextureCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, res := range c.textures {
		c.destroy(res)
		delete(c.textures, id)
	}
	for _, res := range c.removed {
		c.destroy(res)
	}
	c.removed = nil
	c.pool.Close()
}
