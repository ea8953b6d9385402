package vision

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	pigo "github.com/esimov/pigo/core"
)

const (
	// FaceFinderCascade is the expected filename of the face cascade inside
	// the configured cascade directory.
	FaceFinderCascade = "facefinder"
	// PuplocCascade is the expected filename of the pupil localization cascade.
	PuplocCascade = "puploc"
)

const (
	faceMinSize     = 60
	faceShiftFactor = 0.1
	faceScaleFactor = 1.1
	faceClusterIoU  = 0.2
	faceQuality     = 5.0
	pupilPerturbs   = 50
)

// PigoDetector runs pigo pixel-intensity-comparison cascades for face and
// pupil localization. It keeps the unpacked cascades for the life of the
// process; per-frame detection allocates nothing beyond pigo's own buffers.
type PigoDetector struct {
	face  *pigo.Pigo
	pupil *pigo.PuplocCascade
}

// NewPigoDetector loads the facefinder and puploc cascade files from dir.
func NewPigoDetector(dir string) (*PigoDetector, error) {
	faceData, err := os.ReadFile(filepath.Join(dir, FaceFinderCascade))
	if err != nil {
		return nil, fmt.Errorf("vision: read face cascade: %w", err)
	}
	face, err := pigo.NewPigo().Unpack(faceData)
	if err != nil {
		return nil, fmt.Errorf("vision: unpack face cascade: %w", err)
	}

	pupilData, err := os.ReadFile(filepath.Join(dir, PuplocCascade))
	if err != nil {
		return nil, fmt.Errorf("vision: read pupil cascade: %w", err)
	}
	pupil, err := pigo.NewPuplocCascade().UnpackCascade(pupilData)
	if err != nil {
		return nil, fmt.Errorf("vision: unpack pupil cascade: %w", err)
	}

	return &PigoDetector{face: face, pupil: pupil}, nil
}

// DetectFaces runs the face cascade over the whole frame and returns clustered
// detections above the quality floor as bounding boxes.
func (d *PigoDetector) DetectFaces(img *image.Gray) []image.Rectangle {
	params := d.cascadeParams(img)
	dets := d.face.RunCascade(params, 0.0)
	dets = d.face.ClusterDetections(dets, faceClusterIoU)

	var faces []image.Rectangle
	for _, det := range dets {
		if det.Q < faceQuality {
			continue
		}
		half := det.Scale / 2
		faces = append(faces, image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half))
	}
	return faces
}

// DetectEyes seeds the pupil localizer at the canonical left and right eye
// positions within the face box and returns the refined centers it accepts.
func (d *PigoDetector) DetectEyes(img *image.Gray, face image.Rectangle) []image.Point {
	params := d.cascadeParams(img)
	width := face.Dx()
	height := face.Dy()
	row := face.Min.Y + int(0.4*float64(height))
	scale := 0.25 * float64(width)

	var eyes []image.Point
	for _, fx := range []float64{0.35, 0.65} {
		seed := &pigo.Puploc{
			Row:      row,
			Col:      face.Min.X + int(fx*float64(width)),
			Scale:    float32(scale),
			Perturbs: pupilPerturbs,
		}
		loc := d.pupil.RunDetector(*seed, params.ImageParams, 0.0, false)
		if loc.Row <= 0 || loc.Col <= 0 {
			continue
		}
		eyes = append(eyes, image.Point{X: loc.Col, Y: loc.Row})
	}
	return eyes
}

func (d *PigoDetector) cascadeParams(img *image.Gray) pigo.CascadeParams {
	bounds := img.Bounds()
	rows := bounds.Dy()
	cols := bounds.Dx()
	maxSize := rows
	if cols < maxSize {
		maxSize = cols
	}
	return pigo.CascadeParams{
		MinSize:     faceMinSize,
		MaxSize:     maxSize,
		ShiftFactor: faceShiftFactor,
		ScaleFactor: faceScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: img.Pix,
			Rows:   rows,
			Cols:   cols,
			Dim:    img.Stride,
		},
	}
}
