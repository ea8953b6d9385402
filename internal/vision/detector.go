package vision

import "image"

// Detector locates faces and eyes in a single grayscale frame. Implementations
// must be safe for sequential reuse within one session; they are never called
// concurrently for the same session.
type Detector interface {
	// DetectFaces returns bounding boxes for every face candidate found in img.
	DetectFaces(img *image.Gray) []image.Rectangle

	// DetectEyes returns eye center candidates, in img coordinates, restricted
	// to the provided face bounding region.
	DetectEyes(img *image.Gray, face image.Rectangle) []image.Point
}

// Thresholds holds the movement limits and the detector width cap.
type Thresholds struct {
	// FaceMovement is the centroid distance, in original-frame pixels, above
	// which face motion counts as looking away.
	FaceMovement float64
	// EyeMovement is the mean pairwise eye-centroid distance above which eye
	// motion counts as looking away.
	EyeMovement float64
	// MaxFrameWidth caps detector input width; wider frames are downscaled
	// and result coordinates mapped back to original-frame space.
	MaxFrameWidth int
}

// DefaultThresholds returns the tuning used for 24 fps sources analyzed at
// one third of the recording rate.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FaceMovement:  25,
		EyeMovement:   18,
		MaxFrameWidth: 640,
	}
}
