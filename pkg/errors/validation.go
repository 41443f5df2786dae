package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateOutputFilename validates an explicit output filename for safety.
// It ensures the filename is a simple basename without path components.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators (the output directory is resolved separately)
//   - No path traversal sequences
//   - Maximum length of 255 characters
func ValidateOutputFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "output filename cannot be empty")
	}

	if len(filename) > 255 {
		return New(ErrCodeInvalidPath, "output filename too long (max 255 characters)")
	}

	for _, r := range filename {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output filename contains invalid control characters")
		}
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "output filename cannot contain path separators")
	}

	if strings.Contains(filename, "..") {
		return New(ErrCodeInvalidPath, "output filename cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateDimensions validates requested page dimensions in pixels.
// Both values must be positive and within the bounds a browser viewport
// can actually represent.
func ValidateDimensions(width, height int) error {
	const maxDimension = 16384

	if width <= 0 {
		return New(ErrCodeInvalidInput, "width must be positive, got %d", width)
	}
	if height <= 0 {
		return New(ErrCodeInvalidInput, "height must be positive, got %d", height)
	}
	if width > maxDimension || height > maxDimension {
		return New(ErrCodeInvalidInput, "dimensions cannot exceed %d pixels", maxDimension)
	}

	return nil
}

// ValidateQuality validates the device pixel density multiplier.
func ValidateQuality(quality float64) error {
	if quality <= 0 {
		return New(ErrCodeInvalidInput, "quality must be positive, got %g", quality)
	}
	if quality > 8 {
		return New(ErrCodeInvalidInput, "quality cannot exceed 8, got %g", quality)
	}
	return nil
}

// ValidateScale validates the post-layout scale factor.
func ValidateScale(scale float64) error {
	if scale <= 0 {
		return New(ErrCodeInvalidInput, "scale must be positive, got %g", scale)
	}
	if scale > 8 {
		return New(ErrCodeInvalidInput, "scale cannot exceed 8, got %g", scale)
	}
	return nil
}

// backgroundRegex matches CSS color values that are safe to interpolate
// into a style block: named colors, hex codes, and rgb()/rgba()/hsl()
// function notation.
var backgroundRegex = regexp.MustCompile(`^[A-Za-z0-9#(),.% -]+$`)

// ValidateBackground validates a background color value before it is
// interpolated into page styling. The rules reject anything that could
// escape a CSS declaration:
//   - No empty values
//   - No control characters
//   - Only characters used by named colors, hex codes, and color functions
//   - Maximum length of 64 characters
//
// The literal value "transparent" is always accepted.
func ValidateBackground(color string) error {
	if color == "" {
		return New(ErrCodeInvalidInput, "background color cannot be empty")
	}
	if color == "transparent" {
		return nil
	}

	if len(color) > 64 {
		return New(ErrCodeInvalidInput, "background color too long (max 64 characters)")
	}

	if !backgroundRegex.MatchString(color) {
		return New(ErrCodeInvalidInput, "invalid background color: %q", color)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
