package wave

import "testing"

func TestExtractEmptyWindow(t *testing.T) {
	env := Extract(nil, 100)
	if !env.Empty() {
		t.Fatalf("envelope of empty window should be empty, got %d points", env.Len())
	}
	if len(env.Mins) != 0 || len(env.Maxs) != 0 {
		t.Fatalf("want two empty sequences, got %d/%d", len(env.Mins), len(env.Maxs))
	}
}

func TestExtractIdentityWhenShort(t *testing.T) {
	in := []float64{0.1, -0.5, 0.9}
	env := Extract(in, 8)
	if env.Len() != len(in) {
		t.Fatalf("identity envelope length = %d, want %d", env.Len(), len(in))
	}
	for i := range in {
		if env.Mins[i] != in[i] || env.Maxs[i] != in[i] {
			t.Errorf("point %d: mins=%v maxs=%v, want both %v", i, env.Mins[i], env.Maxs[i], in[i])
		}
	}
}

func TestExtractIdentityDoesNotAliasInput(t *testing.T) {
	in := []float64{0.25, 0.5}
	env := Extract(in, 4)
	in[0] = -1
	if env.Mins[0] != 0.25 {
		t.Fatalf("envelope aliases the input slice")
	}
}

func TestExtractBuckets(t *testing.T) {
	// Twelve samples at resolution 3: bucket size 4.
	in := []float64{
		0.1, -0.2, 0.3, 0.0,
		-0.9, 0.4, 0.2, 0.1,
		0.0, 0.0, 0.7, -0.1,
	}
	env := Extract(in, 3)
	if env.Len() != 3 {
		t.Fatalf("envelope length = %d, want 3", env.Len())
	}
	wantMins := []float64{-0.2, -0.9, -0.1}
	wantMaxs := []float64{0.3, 0.4, 0.7}
	for i := 0; i < 3; i++ {
		if env.Mins[i] != wantMins[i] {
			t.Errorf("mins[%d] = %v, want %v", i, env.Mins[i], wantMins[i])
		}
		if env.Maxs[i] != wantMaxs[i] {
			t.Errorf("maxs[%d] = %v, want %v", i, env.Maxs[i], wantMaxs[i])
		}
	}
}

func TestExtractTruncatesTail(t *testing.T) {
	// 10 samples at resolution 3: bucket size 3, the 10th sample (a huge
	// spike) falls in the truncated tail and must not be reported.
	in := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1.0}
	env := Extract(in, 3)
	if env.Len() != 3 {
		t.Fatalf("envelope length = %d, want 3", env.Len())
	}
	for i, v := range env.Maxs {
		if v != 0 {
			t.Errorf("maxs[%d] = %v, want 0 (tail sample leaked in)", i, v)
		}
	}
}

func TestExtractResultLengthAndOrdering(t *testing.T) {
	in := make([]float64, 997)
	for i := range in {
		in[i] = float64(i%17)/17.0 - 0.5
	}
	for _, res := range []int{1, 2, 10, 100, 996} {
		env := Extract(in, res)
		if env.Len() != res {
			t.Errorf("resolution %d: length = %d, want %d", res, env.Len(), res)
		}
		for i := range env.Mins {
			if env.Mins[i] > env.Maxs[i] {
				t.Errorf("resolution %d: mins[%d]=%v > maxs[%d]=%v", res, i, env.Mins[i], i, env.Maxs[i])
			}
		}
	}
}
