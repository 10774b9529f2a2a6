package fireflyclient

import (
	"strconv"
	"strings"
)

// ContentClass is a closed classification hint describing the desired image
// style category.
type ContentClass string

const (
	// ContentClassPhoto requests photographic output.
	ContentClassPhoto ContentClass = "photo"
	// ContentClassArt requests illustrative output.
	ContentClassArt ContentClass = "art"
)

// Validate rejects values outside the closed set. The empty value is valid and
// selects the default.
func (c ContentClass) Validate() error {
	switch c {
	case "", ContentClassPhoto, ContentClassArt:
		return nil
	default:
		return &InputError{Reason: "unknown content class " + strconv.Quote(string(c))}
	}
}

// Model identifies a Firefly image model, sent as the x-model-version header.
type Model string

const (
	ModelImage3         Model = "image3"
	ModelImage3Custom   Model = "image3_custom"
	ModelImage4Standard Model = "image4_standard"
	ModelImage4Ultra    Model = "image4_ultra"
)

// Validate rejects values outside the closed set. The empty value is valid and
// selects the default.
func (m Model) Validate() error {
	switch m {
	case "", ModelImage3, ModelImage3Custom, ModelImage4Standard, ModelImage4Ultra:
		return nil
	default:
		return &InputError{Reason: "unknown model " + strconv.Quote(string(m))}
	}
}

// Defaults applied when GenerateOptions fields are left zero. They mirror the
// defaults of the original integration.
const (
	DefaultSize         = "1024x1024"
	DefaultContentClass = ContentClassPhoto
	DefaultModel        = ModelImage4Standard
)

// GenerateOptions configures a single generation call. The zero value selects
// all defaults. Options are validated before any network call.
type GenerateOptions struct {
	// Size is the output dimensions as "<width>x<height>", e.g. "1024x1024".
	Size string
	// ContentClass selects photographic or illustrative output.
	ContentClass ContentClass
	// Model selects the Firefly image model.
	Model Model
}

// withDefaults fills zero fields with the package defaults.
func (o GenerateOptions) withDefaults() GenerateOptions {
	if o.Size == "" {
		o.Size = DefaultSize
	}
	if o.ContentClass == "" {
		o.ContentClass = DefaultContentClass
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	return o
}

// Size holds parsed output dimensions.
type Size struct {
	Width  int
	Height int
}

// ParseSize parses a "<width>x<height>" string into positive dimensions.
// Returns a *SizeError when the string is malformed.
func ParseSize(value string) (Size, error) {
	parts := strings.Split(value, "x")
	if len(parts) != 2 {
		return Size{}, &SizeError{Value: value}
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return Size{}, &SizeError{Value: value}
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return Size{}, &SizeError{Value: value}
	}
	if width <= 0 || height <= 0 {
		return Size{}, &SizeError{Value: value}
	}

	return Size{Width: width, Height: height}, nil
}
