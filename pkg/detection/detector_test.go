package detection

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDetection_Center(t *testing.T) {
	tests := []struct {
		name    string
		det     Detection
		expectX float64
		expectY float64
	}{
		{
			name:    "center of image",
			det:     Detection{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			expectX: 0.5,
			expectY: 0.5,
		},
		{
			name:    "top left corner",
			det:     Detection{X: 0, Y: 0, W: 0.2, H: 0.2},
			expectX: 0.1,
			expectY: 0.1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := tc.det.Center()
			if x != tc.expectX || y != tc.expectY {
				t.Errorf("Center = (%.2f, %.2f), want (%.2f, %.2f)", x, y, tc.expectX, tc.expectY)
			}
		})
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name      string
		dets      []Detection
		wantClass string
		wantNil   bool
	}{
		{name: "empty", wantNil: true},
		{
			name:      "single",
			dets:      []Detection{{ClassName: "cup", Confidence: 0.6, W: 0.1, H: 0.1}},
			wantClass: "cup",
		},
		{
			name: "confidence dominates",
			dets: []Detection{
				{ClassName: "cup", Confidence: 0.55, W: 0.2, H: 0.2},
				{ClassName: "person", Confidence: 0.95, W: 0.18, H: 0.18},
			},
			wantClass: "person",
		},
		{
			name: "size breaks near ties",
			dets: []Detection{
				{ClassName: "cat", Confidence: 0.8, W: 0.1, H: 0.1},
				{ClassName: "dog", Confidence: 0.8, W: 0.5, H: 0.5},
			},
			wantClass: "dog",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectBest(tc.dets)
			if tc.wantNil {
				if got != nil {
					t.Errorf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || got.ClassName != tc.wantClass {
				t.Errorf("got %+v, want %s", got, tc.wantClass)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	dets := []Detection{
		{ClassName: "cup", Confidence: 0.6, W: 0.1, H: 0.1},
		{ClassName: "person", Confidence: 0.9, W: 0.4, H: 0.6},
		{ClassName: "cup", Confidence: 0.7, W: 0.1, H: 0.1},
		{ClassName: "", Confidence: 0.99, W: 0.5, H: 0.5},
	}

	got := Labels(dets)
	want := []string{"person", "cup"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, got[i], want[i])
		}
	}

	if Labels(nil) != nil {
		t.Error("no detections should give no labels")
	}
}

func TestLabelsTieAlphabetical(t *testing.T) {
	got := Labels([]Detection{
		{ClassName: "dog", Confidence: 0.8, W: 0.2, H: 0.2},
		{ClassName: "cat", Confidence: 0.8, W: 0.2, H: 0.2},
	})
	if len(got) != 2 || got[0] != "cat" {
		t.Errorf("got %v, want cat first", got)
	}
}

func TestClassName(t *testing.T) {
	tests := []struct {
		id   int
		want string
	}{
		{0, "person"},
		{16, "dog"},
		{79, "toothbrush"},
		{80, "object"},
		{-1, "object"},
	}
	for _, tc := range tests {
		if got := ClassName(tc.id); got != tc.want {
			t.Errorf("ClassName(%d) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestNewYOLOMissingModel(t *testing.T) {
	cfg := DefaultYOLOConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "absent.onnx")

	_, err := NewYOLO(cfg)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
	if ModelExists(cfg.ModelPath) {
		t.Error("ModelExists should be false")
	}
}
