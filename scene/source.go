package scene

// SourceKind discriminates the Source variants.
type SourceKind uint8

// Source kinds. The names double as the interchange "type" tag.
const (
	SourceVideo SourceKind = iota
	SourceImage
	SourceColor
)

// String returns the interchange tag of the kind.
func (k SourceKind) String() string {
	switch k {
	case SourceVideo:
		return "Video"
	case SourceImage:
		return "Image"
	case SourceColor:
		return "Color"
	default:
		return "Unknown"
	}
}

// Source is the content a layer draws. It is one of VideoSource,
// ImageSource or ColorSource; no other implementations exist.
type Source interface {
	Kind() SourceKind
	isSource()
}

// VideoSource draws the current frame of a video whose frames are uploaded
// to the texture cache under ResourceID.
type VideoSource struct {
	ResourceID ContentID
}

// ImageSource draws a still image uploaded under ResourceID.
type ImageSource struct {
	ResourceID ContentID
}

// ColorSource fills the layer quad with a flat color.
type ColorSource struct {
	Color Color
}

func (VideoSource) Kind() SourceKind { return SourceVideo }
func (ImageSource) Kind() SourceKind { return SourceImage }
func (ColorSource) Kind() SourceKind { return SourceColor }

func (VideoSource) isSource() {}
func (ImageSource) isSource() {}
func (ColorSource) isSource() {}

// ContentRef returns the texture cache entry a source draws from.
// It reports false for color sources and nil.
func ContentRef(s Source) (ContentID, bool) {
	switch s := s.(type) {
	case VideoSource:
		return s.ResourceID, true
	case ImageSource:
		return s.ResourceID, true
	default:
		return NilContentID, false
	}
}
