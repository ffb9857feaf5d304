package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-srishti/pkg/classifier"
	"github.com/teslashibe/go-srishti/pkg/dataset"
	"github.com/teslashibe/go-srishti/pkg/loader"
	"github.com/teslashibe/go-srishti/pkg/similarity"
)

type fakeSource[T any] struct {
	state loader.State
	v     T
}

func (f fakeSource[T]) State() loader.State { return f.state }

func (f fakeSource[T]) Get() (T, bool) { return f.v, f.state == loader.Ready }

func classifierSource(state loader.State, label string) fakeSource[*classifier.Responder] {
	return fakeSource[*classifier.Responder]{state: state, v: classifier.NewResponder(classifier.NewMock(label))}
}

func similaritySource(t *testing.T, state loader.State) fakeSource[*similarity.Matcher] {
	t.Helper()
	m, err := similarity.NewMatcher(similarity.NewMock(map[string][]float32{
		"what's up":   {0, 1},
		"whats up":    {0, 1},
		"edge query":  {1, 0},
		"edge sample": {3, 4},
		"nothing":     {1, -1},
	}))
	if err != nil {
		t.Fatal(err)
	}
	return fakeSource[*similarity.Matcher]{state: state, v: m}
}

var examples = []dataset.Example{
	{Input: "whats up", ExpectedOutput: "abc"},
	{Input: "edge sample", ExpectedOutput: "edge"},
}

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name     string
		clsState loader.State
		clsLabel string
		simState loader.State
		query    string
		wantKind Kind
		wantText string
		wantTier string
	}{
		{"classifier label wins", loader.Ready, "greeting", loader.Ready, "what's up", Answer, "greeting", TierClassifier},
		{"classifier loading blocks everything", loader.Loading, "greeting", loader.Ready, "what's up", Loading, "", TierClassifier},
		{"unknown falls to similarity", loader.Ready, "unknown", loader.Ready, "what's up", Answer, "abc", TierSimilarity},
		{"unknown then similarity loading", loader.Ready, "unknown", loader.Loading, "what's up", Loading, "", TierSimilarity},
		{"classifier failed skips to similarity", loader.Failed, "", loader.Ready, "what's up", Answer, "abc", TierSimilarity},
		{"classifier not started skips", loader.NotStarted, "", loader.Ready, "what's up", Answer, "abc", TierSimilarity},
		{"both failed", loader.Failed, "", loader.Failed, "what's up", NoAnswer, "", ""},
		{"both not started", loader.NotStarted, "", loader.NotStarted, "what's up", NoAnswer, "", ""},
		{"no match above threshold", loader.Failed, "", loader.Ready, "nothing", NoAnswer, "", ""},
		{"exact threshold is no answer", loader.Ready, "unknown", loader.Ready, "edge query", NoAnswer, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(classifierSource(tc.clsState, tc.clsLabel), similaritySource(t, tc.simState), examples)
			got := r.Resolve(context.Background(), tc.query)

			if got.Kind != tc.wantKind {
				t.Fatalf("kind = %v, want %v", got.Kind, tc.wantKind)
			}
			if got.Text != tc.wantText {
				t.Errorf("text = %q, want %q", got.Text, tc.wantText)
			}
			if got.Tier != tc.wantTier {
				t.Errorf("tier = %q, want %q", got.Tier, tc.wantTier)
			}
		})
	}
}

func TestResolveNeverLoadingOnceSettled(t *testing.T) {
	settled := []loader.State{loader.Ready, loader.Failed, loader.NotStarted}

	for _, cs := range settled {
		for _, ss := range settled {
			r := New(classifierSource(cs, "unknown"), similaritySource(t, ss), examples)
			if got := r.Resolve(context.Background(), "nothing"); got.Kind == Loading {
				t.Errorf("classifier=%v similarity=%v returned loading", cs, ss)
			}
		}
	}
}

func TestResolveClassifierErrorFallsThrough(t *testing.T) {
	cls := fakeSource[*classifier.Responder]{
		state: loader.Ready,
		v:     classifier.NewResponder(classifier.WithError(errors.New("inference failed"))),
	}
	r := New(cls, similaritySource(t, loader.Ready), examples)

	got := r.Resolve(context.Background(), "what's up")
	if got.Kind != Answer || got.Text != "abc" {
		t.Errorf("got %+v, want similarity answer", got)
	}
}

func TestResolveRecoversPanic(t *testing.T) {
	mock := &classifier.Mock{
		ClassifyFunc: func(ctx context.Context, text string) (string, float64, error) {
			panic("corrupt weights")
		},
	}
	cls := fakeSource[*classifier.Responder]{state: loader.Ready, v: classifier.NewResponder(mock)}
	r := New(cls, nil, examples)

	if got := r.Resolve(context.Background(), "x"); got.Kind != NoAnswer {
		t.Errorf("got %+v, want no answer", got)
	}
}

func TestResolveNilSources(t *testing.T) {
	r := New(nil, nil, nil)
	if got := r.Resolve(context.Background(), "x"); got.Kind != NoAnswer {
		t.Errorf("got %+v", got)
	}
}

func TestWithThreshold(t *testing.T) {
	r := New(classifierSource(loader.Failed, ""), similaritySource(t, loader.Ready), examples, WithThreshold(0.5))
	if r.Threshold() != 0.5 {
		t.Fatalf("threshold = %v", r.Threshold())
	}
	if got := r.Resolve(context.Background(), "edge query"); got.Kind != Answer || got.Text != "edge" {
		t.Errorf("got %+v, want edge answer below lowered threshold", got)
	}
}

// End to end over real loader slots: classifier says unknown, similarity
// finds the example.
func TestResolveWithLoaderSlots(t *testing.T) {
	clsRelease := make(chan struct{})
	cls := loader.NewSlot("classifier", func(ctx context.Context) (*classifier.Responder, error) {
		<-clsRelease
		return classifier.NewResponder(classifier.NewMock("unknown")), nil
	})
	sim := loader.NewSlot("similarity", func(ctx context.Context) (*similarity.Matcher, error) {
		return similarity.NewMatcher(similarity.NewMock(map[string][]float32{
			"hi there": {1, 1},
			"hi":       {1, 0.9},
		}))
	})

	r := New(cls, sim, []dataset.Example{{Input: "hi", ExpectedOutput: "abc"}})

	if got := r.Resolve(context.Background(), "hi there"); got.Kind != NoAnswer {
		t.Errorf("before loading: got %+v, want no answer", got)
	}

	cls.Start(context.Background())
	sim.Start(context.Background())
	if got := r.Resolve(context.Background(), "hi there"); got.Kind != Loading {
		t.Errorf("while classifier loading: got %+v, want loading", got)
	}

	close(clsRelease)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cls.Wait(ctx)
	sim.Wait(ctx)

	got := r.Resolve(context.Background(), "hi there")
	if got.Kind != Answer || got.Text != "abc" {
		t.Errorf("after loading: got %+v, want answer abc", got)
	}
}
