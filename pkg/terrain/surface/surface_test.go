package surface

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

// ramp rises from 0 at x=0 to 1 at x=w-1 and is constant along y.
func ramp(w, h int) *heightfield.Heightfield {
	hf := heightfield.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hf.Set(x, y, float64(x)/float64(w-1))
		}
	}
	return hf
}

func TestNewDefaultResolution(t *testing.T) {
	tests := []struct {
		size Size
		res  int
		want int
	}{
		{Size{Width: 256, Depth: 12, Length: 256}, 0, 257},
		{Size{Width: 256, Depth: 12, Length: 256}, 129, 129},
		{Size{Width: 0, Depth: 1, Length: 0}, 0, 2},
	}
	for _, tt := range tests {
		if got := New(tt.size, tt.res).Resolution(); got != tt.want {
			t.Errorf("New(%+v, %d).Resolution() = %d, want %d", tt.size, tt.res, got, tt.want)
		}
	}
}

func TestEmptyTerrain(t *testing.T) {
	tr := New(Size{Width: 10, Depth: 5, Length: 10}, 0)
	if h := tr.InterpolatedHeight(0.5, 0.5); h != 0 {
		t.Errorf("InterpolatedHeight = %v, want 0", h)
	}
	if n := tr.InterpolatedNormal(0.5, 0.5); n != heightfield.Up {
		t.Errorf("InterpolatedNormal = %+v, want up", n)
	}
	if tr.Heights() != nil || tr.SplatWeights() != nil {
		t.Error("expected nil heights and weights before any hand-off")
	}
	if len(tr.Instances()) != 0 {
		t.Error("expected no instances")
	}
}

func TestInterpolatedHeightAndNormal(t *testing.T) {
	tr := New(Size{Width: 10, Depth: 10, Length: 10}, 5)
	if err := tr.SetHeights(ramp(3, 3)); err != nil {
		t.Fatalf("SetHeights: %v", err)
	}
	if got := tr.Heights(); got.W != 5 || got.H != 5 {
		t.Fatalf("resampled to %dx%d, want 5x5", got.W, got.H)
	}

	for _, nx := range []float64{0, 0.25, 0.5, 1} {
		if got, want := tr.InterpolatedHeight(nx, 0.3), nx*10; math.Abs(got-want) > 1e-9 {
			t.Errorf("InterpolatedHeight(%v) = %v, want %v", nx, got, want)
		}
	}

	// Height rises 10 units over 10 units of width: a 45 degree slope facing -x.
	n := tr.InterpolatedNormal(0.5, 0.5)
	if angle := heightfield.Up.Angle(n); math.Abs(angle-45) > 1e-6 {
		t.Errorf("slope = %v degrees, want 45", angle)
	}
	if n.X >= 0 || math.Abs(n.Z) > 1e-12 {
		t.Errorf("normal = %+v, want pointing toward -x", n)
	}

	// One-sided difference at the border still sees the slope.
	if angle := heightfield.Up.Angle(tr.InterpolatedNormal(0, 0)); math.Abs(angle-45) > 1e-6 {
		t.Errorf("border slope = %v degrees, want 45", angle)
	}
}

func TestInterpolatedHeightClampsOutside(t *testing.T) {
	tr := New(Size{Width: 4, Depth: 2, Length: 4}, 0)
	if err := tr.SetHeights(ramp(5, 5)); err != nil {
		t.Fatal(err)
	}
	if got := tr.InterpolatedHeight(-1, 0.5); got != 0 {
		t.Errorf("left of terrain = %v, want 0", got)
	}
	if got := tr.InterpolatedHeight(2, 0.5); math.Abs(got-2) > 1e-12 {
		t.Errorf("right of terrain = %v, want 2", got)
	}
}

func TestNilData(t *testing.T) {
	tr := New(Size{Width: 4, Depth: 1, Length: 4}, 0)
	if err := tr.SetHeights(nil); !errors.Is(err, ErrNilData) {
		t.Errorf("SetHeights(nil) = %v, want ErrNilData", err)
	}
	if err := tr.SetSplatWeights(nil); !errors.Is(err, ErrNilData) {
		t.Errorf("SetSplatWeights(nil) = %v, want ErrNilData", err)
	}
}

func TestHandOffCopies(t *testing.T) {
	tr := New(Size{Width: 4, Depth: 1, Length: 4}, 0)

	hf := ramp(5, 5)
	if err := tr.SetHeights(hf); err != nil {
		t.Fatal(err)
	}
	hf.Set(4, 4, 99)
	if got := tr.Heights().At(4, 4); got != 1 {
		t.Errorf("stored height changed to %v after caller mutation", got)
	}

	m := splat.NewMap(2, 2, 2)
	m.Cell(0, 0)[0] = 1
	if err := tr.SetSplatWeights(m); err != nil {
		t.Fatal(err)
	}
	m.Cell(0, 0)[0] = 0
	if got := tr.SplatWeights().Weight(0, 0, 0); got != 1 {
		t.Errorf("stored weight = %v, want 1", got)
	}
}

func TestReplaceInstances(t *testing.T) {
	tr := New(Size{Width: 4, Depth: 1, Length: 4}, 0)

	first := vegetation.Instances([]vegetation.Candidate{{X: 0.1}, {X: 0.2}, {X: 0.3}})
	if err := tr.ReplaceInstances(first); err != nil {
		t.Fatal(err)
	}
	second := vegetation.Instances([]vegetation.Candidate{{X: 0.9}})
	if err := tr.ReplaceInstances(second); err != nil {
		t.Fatal(err)
	}

	got := tr.Instances()
	if len(got) != 1 || got[0].Position[0] != 0.9 {
		t.Fatalf("Instances() = %+v, want only the second batch", got)
	}

	got[0].Rotation = 180
	if tr.Instances()[0].Rotation != 0 {
		t.Error("Instances() must return a copy")
	}

	if err := tr.ReplaceInstances(nil); err != nil {
		t.Fatal(err)
	}
	if len(tr.Instances()) != 0 {
		t.Error("ReplaceInstances(nil) must clear")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := New(Size{Width: 16, Depth: 4, Length: 16}, 0)
	if err := tr.SetHeights(ramp(9, 9)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				nx := float64((i*200+j)%100) / 100
				tr.InterpolatedHeight(nx, nx)
				tr.InterpolatedNormal(nx, nx)
			}
		}()
	}
	for range 4 {
		if err := tr.SetHeights(ramp(9, 9)); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
}
