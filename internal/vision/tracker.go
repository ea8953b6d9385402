package vision

import (
	"image"
	"math"
	"sort"
)

// FrameAnalysis captures one analyzed frame's findings. Field names form the
// wire contract of the emitted analysis artifacts.
type FrameAnalysis struct {
	FacesDetected int     `json:"faces_detected"`
	EyesDetected  int     `json:"eyes_detected"`
	FaceMovement  float64 `json:"face_movement"`
	EyeMovement   float64 `json:"eye_movement"`
	LookingAway   bool    `json:"looking_away"`
	FrameScale    float64 `json:"frame_scale"`
	Timestamp     float64 `json:"timestamp"`
	FrameNumber   int     `json:"frame_number"`
}

// State is the cross-frame memory of the gaze tracker: the previous frame's
// face centroid and eye centroid pair, when known. The zero value is the
// correct state for the start of a session.
type State struct {
	FaceCenter *image.Point
	EyeCenters []image.Point
}

// AnalyzeFrame runs detection over one frame and compares centroids against
// the previous state. It returns the frame's findings and the state to carry
// into the next frame. Coordinates in the result are always in original-frame
// space regardless of any internal downscaling.
func AnalyzeFrame(det Detector, img *image.Gray, state State, th Thresholds) (FrameAnalysis, State) {
	work, scale := downscale(img, th.MaxFrameWidth)
	inv := 1.0 / scale

	result := FrameAnalysis{FrameScale: scale}

	faces := det.DetectFaces(work)
	result.FacesDetected = len(faces)
	if len(faces) == 0 {
		// No face is treated as looking away, and stale centroids must not
		// leak into the next detection.
		result.LookingAway = true
		return result, State{}
	}

	face := largestFace(faces)
	faceCenter := scalePoint(center(face), inv)
	if state.FaceCenter != nil {
		result.FaceMovement = distance(faceCenter, *state.FaceCenter)
		if result.FaceMovement > th.FaceMovement {
			result.LookingAway = true
		}
	}
	next := State{FaceCenter: &faceCenter}

	eyes := det.DetectEyes(work, face)
	result.EyesDetected = len(eyes)
	if len(eyes) < 2 {
		result.LookingAway = true
		return result, next
	}

	sort.Slice(eyes, func(i, j int) bool { return eyes[i].X < eyes[j].X })
	pair := []image.Point{scalePoint(eyes[0], inv), scalePoint(eyes[1], inv)}

	if len(state.EyeCenters) == len(pair) {
		var total float64
		for i := range pair {
			total += distance(pair[i], state.EyeCenters[i])
		}
		result.EyeMovement = total / float64(len(pair))
		if result.EyeMovement > th.EyeMovement {
			result.LookingAway = true
		}
	}
	next.EyeCenters = pair

	return result, next
}

func largestFace(faces []image.Rectangle) image.Rectangle {
	best := faces[0]
	bestArea := best.Dx() * best.Dy()
	for _, face := range faces[1:] {
		if area := face.Dx() * face.Dy(); area > bestArea {
			best, bestArea = face, area
		}
	}
	return best
}

func center(r image.Rectangle) image.Point {
	return image.Point{X: r.Min.X + r.Dx()/2, Y: r.Min.Y + r.Dy()/2}
}

func scalePoint(p image.Point, factor float64) image.Point {
	if factor == 1.0 {
		return p
	}
	return image.Point{X: int(float64(p.X) * factor), Y: int(float64(p.Y) * factor)}
}

func distance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
