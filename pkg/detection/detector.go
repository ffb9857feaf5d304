// Package detection finds objects in camera frames with a YOLO model and
// reads frames from a local webcam, both through OpenCV.
package detection

import (
	"errors"
	"sort"
)

var (
	// ErrModelNotFound is returned when the detection model file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrCameraUnavailable is returned when the webcam cannot be opened.
	ErrCameraUnavailable = errors.New("detection: camera unavailable")
)

// Detection is one detected object.
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
	ClassID    int     // COCO class ID
	ClassName  string  // Human-readable class name
}

// Center returns the center point of the detection.
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box.
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Detector finds objects in a JPEG frame.
type Detector interface {
	Detect(jpeg []byte) ([]Detection, error)
	Close() error
}

// prominence weighs confidence against relative size.
func prominence(d Detection, maxArea float64) float64 {
	if maxArea <= 0 {
		return d.Confidence * 0.7
	}
	return d.Confidence*0.7 + (d.Area()/maxArea)*0.3
}

func maxArea(dets []Detection) float64 {
	m := 0.0
	for _, d := range dets {
		if d.Area() > m {
			m = d.Area()
		}
	}
	return m
}

// SelectBest picks the most prominent detection.
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}
	if len(dets) == 1 {
		return &dets[0]
	}

	ma := maxArea(dets)
	bestScore := -1.0
	var best *Detection
	for i := range dets {
		if s := prominence(dets[i], ma); s > bestScore {
			bestScore = s
			best = &dets[i]
		}
	}
	return best
}

// Labels returns the distinct class names in dets, most prominent first.
// Equal prominence falls back to alphabetical order.
func Labels(dets []Detection) []string {
	if len(dets) == 0 {
		return nil
	}

	ma := maxArea(dets)
	best := make(map[string]float64)
	for _, d := range dets {
		if d.ClassName == "" {
			continue
		}
		p := prominence(d, ma)
		if s, ok := best[d.ClassName]; !ok || p > s {
			best[d.ClassName] = p
		}
	}

	labels := make([]string, 0, len(best))
	for name := range best {
		labels = append(labels, name)
	}
	sort.Slice(labels, func(i, j int) bool {
		if best[labels[i]] != best[labels[j]] {
			return best[labels[i]] > best[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}
