package vision

import (
	"image"
	"math"
	"testing"
)

type stubDetector struct {
	faces []image.Rectangle
	eyes  []image.Point
}

func (s *stubDetector) DetectFaces(*image.Gray) []image.Rectangle { return s.faces }

func (s *stubDetector) DetectEyes(*image.Gray, image.Rectangle) []image.Point { return s.eyes }

func grayFrame(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

func faceAt(cx, cy, size int) image.Rectangle {
	half := size / 2
	return image.Rect(cx-half, cy-half, cx+half, cy+half)
}

func TestAnalyzeFrameNoFaceResetsState(t *testing.T) {
	th := DefaultThresholds()
	prev := image.Point{X: 100, Y: 100}
	state := State{FaceCenter: &prev, EyeCenters: []image.Point{{X: 90, Y: 95}, {X: 110, Y: 95}}}

	result, next := AnalyzeFrame(&stubDetector{}, grayFrame(320, 240), state, th)

	if !result.LookingAway {
		t.Error("expected looking away when no face detected")
	}
	if result.FacesDetected != 0 || result.EyesDetected != 0 {
		t.Errorf("expected zero detections, got faces=%d eyes=%d", result.FacesDetected, result.EyesDetected)
	}
	if next.FaceCenter != nil || next.EyeCenters != nil {
		t.Errorf("expected state reset, got %+v", next)
	}
}

func TestAnalyzeFrameStableFaceAndEyes(t *testing.T) {
	th := DefaultThresholds()
	det := &stubDetector{
		faces: []image.Rectangle{faceAt(160, 120, 80)},
		eyes:  []image.Point{{X: 140, Y: 110}, {X: 180, Y: 110}},
	}

	result, state := AnalyzeFrame(det, grayFrame(320, 240), State{}, th)
	if result.LookingAway {
		t.Error("first frame with a face should not be looking away")
	}
	if result.FaceMovement != 0 || result.EyeMovement != 0 {
		t.Errorf("first frame should report zero movement, got face=%v eye=%v", result.FaceMovement, result.EyeMovement)
	}

	// Identical detections on the next frame keep movement at zero.
	result, state = AnalyzeFrame(det, grayFrame(320, 240), state, th)
	if result.LookingAway {
		t.Error("stable detections should not flag looking away")
	}
	if result.FaceMovement != 0 || result.EyeMovement != 0 {
		t.Errorf("stable detections should report zero movement, got face=%v eye=%v", result.FaceMovement, result.EyeMovement)
	}
	if state.FaceCenter == nil || len(state.EyeCenters) != 2 {
		t.Fatalf("expected carried state, got %+v", state)
	}
}

func TestAnalyzeFrameFaceMovementAboveThreshold(t *testing.T) {
	th := DefaultThresholds()
	first := &stubDetector{faces: []image.Rectangle{faceAt(100, 120, 80)}}
	second := &stubDetector{faces: []image.Rectangle{faceAt(160, 120, 80)}}

	_, state := AnalyzeFrame(first, grayFrame(320, 240), State{}, th)
	result, _ := AnalyzeFrame(second, grayFrame(320, 240), state, th)

	if !result.LookingAway {
		t.Error("60px face jump should exceed the 25px threshold")
	}
	if math.Abs(result.FaceMovement-60) > 0.5 {
		t.Errorf("expected face movement near 60, got %v", result.FaceMovement)
	}
}

func TestAnalyzeFrameFaceMovementAtThresholdIsNotFlagged(t *testing.T) {
	th := DefaultThresholds()
	first := &stubDetector{
		faces: []image.Rectangle{faceAt(100, 120, 80)},
		eyes:  []image.Point{{X: 85, Y: 110}, {X: 115, Y: 110}},
	}
	second := &stubDetector{
		faces: []image.Rectangle{faceAt(125, 120, 80)},
		eyes:  []image.Point{{X: 110, Y: 110}, {X: 140, Y: 110}},
	}

	_, state := AnalyzeFrame(first, grayFrame(320, 240), State{}, th)
	result, _ := AnalyzeFrame(second, grayFrame(320, 240), state, th)

	// Movement of exactly 25 does not exceed the strict threshold. The eyes
	// also moved 25, above the 18px eye threshold, so isolate the face check
	// by verifying the movement value itself.
	if math.Abs(result.FaceMovement-25) > 0.001 {
		t.Fatalf("expected face movement of exactly 25, got %v", result.FaceMovement)
	}
	if result.FaceMovement > th.FaceMovement {
		t.Error("movement equal to the threshold must not exceed it")
	}
}

func TestAnalyzeFrameEyeMovementAboveThreshold(t *testing.T) {
	th := DefaultThresholds()
	face := faceAt(160, 120, 80)
	first := &stubDetector{
		faces: []image.Rectangle{face},
		eyes:  []image.Point{{X: 140, Y: 110}, {X: 180, Y: 110}},
	}
	second := &stubDetector{
		faces: []image.Rectangle{face},
		eyes:  []image.Point{{X: 140, Y: 140}, {X: 180, Y: 140}},
	}

	_, state := AnalyzeFrame(first, grayFrame(320, 240), State{}, th)
	result, _ := AnalyzeFrame(second, grayFrame(320, 240), state, th)

	if !result.LookingAway {
		t.Error("30px vertical eye shift should exceed the 18px threshold")
	}
	if math.Abs(result.EyeMovement-30) > 0.5 {
		t.Errorf("expected eye movement near 30, got %v", result.EyeMovement)
	}
	if result.FaceMovement != 0 {
		t.Errorf("face did not move, got %v", result.FaceMovement)
	}
}

func TestAnalyzeFrameSingleEyeFlagsAndResetsEyeState(t *testing.T) {
	th := DefaultThresholds()
	face := faceAt(160, 120, 80)
	det := &stubDetector{
		faces: []image.Rectangle{face},
		eyes:  []image.Point{{X: 140, Y: 110}},
	}

	prevFace := image.Point{X: 160, Y: 120}
	state := State{FaceCenter: &prevFace, EyeCenters: []image.Point{{X: 140, Y: 110}, {X: 180, Y: 110}}}
	result, next := AnalyzeFrame(det, grayFrame(320, 240), state, th)

	if !result.LookingAway {
		t.Error("fewer than two eyes should flag looking away")
	}
	if result.EyesDetected != 1 {
		t.Errorf("expected one eye detected, got %d", result.EyesDetected)
	}
	if next.FaceCenter == nil {
		t.Error("face state should survive an eye dropout")
	}
	if next.EyeCenters != nil {
		t.Errorf("eye state should reset on dropout, got %v", next.EyeCenters)
	}
}

func TestAnalyzeFrameTakesTwoLeftmostEyes(t *testing.T) {
	th := DefaultThresholds()
	face := faceAt(160, 120, 80)
	first := &stubDetector{
		faces: []image.Rectangle{face},
		eyes:  []image.Point{{X: 200, Y: 110}, {X: 140, Y: 110}, {X: 170, Y: 110}},
	}
	second := &stubDetector{
		faces: []image.Rectangle{face},
		eyes:  []image.Point{{X: 140, Y: 110}, {X: 170, Y: 110}, {X: 250, Y: 200}},
	}

	_, state := AnalyzeFrame(first, grayFrame(320, 240), State{}, th)
	result, _ := AnalyzeFrame(second, grayFrame(320, 240), state, th)

	// The pair (140,110),(170,110) is identical across frames; the spurious
	// rightmost candidate must not contribute movement.
	if result.EyeMovement != 0 {
		t.Errorf("expected zero eye movement from stable leftmost pair, got %v", result.EyeMovement)
	}
	if result.LookingAway {
		t.Error("stable leftmost pair should not flag looking away")
	}
}

func TestAnalyzeFrameLargestFaceWins(t *testing.T) {
	th := DefaultThresholds()
	first := &stubDetector{faces: []image.Rectangle{faceAt(160, 120, 100)}}
	second := &stubDetector{faces: []image.Rectangle{
		faceAt(40, 40, 30),
		faceAt(160, 120, 100),
	}}

	_, state := AnalyzeFrame(first, grayFrame(320, 240), State{}, th)
	result, _ := AnalyzeFrame(second, grayFrame(320, 240), state, th)

	if result.FacesDetected != 2 {
		t.Fatalf("expected two faces detected, got %d", result.FacesDetected)
	}
	if result.FaceMovement != 0 {
		t.Errorf("largest face is stationary, got movement %v", result.FaceMovement)
	}
}

func TestAnalyzeFrameDownscaleMapsCoordinatesBack(t *testing.T) {
	th := DefaultThresholds()
	// 1280px wide frame is downscaled by 0.5 to the 640px cap. The detector
	// sees scaled coordinates; reported movement must be in original pixels.
	first := &stubDetector{faces: []image.Rectangle{faceAt(160, 120, 80)}}
	second := &stubDetector{faces: []image.Rectangle{faceAt(180, 120, 80)}}

	frame := grayFrame(1280, 720)
	result, state := AnalyzeFrame(first, frame, State{}, th)
	if result.FrameScale != 0.5 {
		t.Fatalf("expected frame scale 0.5, got %v", result.FrameScale)
	}
	if state.FaceCenter == nil || state.FaceCenter.X != 320 {
		t.Fatalf("expected face center mapped to original x=320, got %+v", state.FaceCenter)
	}

	result, _ = AnalyzeFrame(second, frame, state, th)
	// 20px in detector space is 40px in original space, above the threshold.
	if math.Abs(result.FaceMovement-40) > 0.5 {
		t.Errorf("expected original-space movement near 40, got %v", result.FaceMovement)
	}
	if !result.LookingAway {
		t.Error("40px original-space movement should exceed the threshold")
	}
}

func TestDownscaleBelowCapIsIdentity(t *testing.T) {
	img := grayFrame(640, 480)
	scaled, factor := downscale(img, 640)
	if factor != 1.0 {
		t.Errorf("expected identity scale, got %v", factor)
	}
	if scaled != img {
		t.Error("expected the original image back when below the cap")
	}
}

func TestDownscaleAppliesWidthCap(t *testing.T) {
	scaled, factor := downscale(grayFrame(1920, 1080), 640)
	if factor < 0.333 || factor > 0.334 {
		t.Errorf("expected scale near 1/3, got %v", factor)
	}
	if got := scaled.Bounds().Dx(); got != 640 {
		t.Errorf("expected width 640, got %d", got)
	}
	if got := scaled.Bounds().Dy(); got != 360 {
		t.Errorf("expected height 360, got %d", got)
	}
}
