package units

import "testing"

func TestCToF_ExactBoundary(t *testing.T) {
	if got := CToF(20.0); got != 68 {
		t.Fatalf("CToF(20.0) = %d, want 68", got)
	}
	if got := CToF(0); got != 32 {
		t.Fatalf("CToF(0) = %d, want 32", got)
	}
	if got := CToF(-40); got != -40 {
		t.Fatalf("CToF(-40) = %d, want -40", got)
	}
}

func TestCToF_HalfDegreeRounding(t *testing.T) {
	// 20.5C is 68.9F and must round up, not truncate.
	if got := CToF(20.5); got != 69 {
		t.Fatalf("CToF(20.5) = %d, want 69", got)
	}
	// 21.389C is 70.5F exactly; halves round away from zero.
	if got := CToF(FToC(70.5)); got != 71 {
		t.Fatalf("CToF at 70.5F boundary = %d, want 71", got)
	}
}

func TestFToC_Inverse(t *testing.T) {
	if got := FToC(68); got != 20 {
		t.Fatalf("FToC(68) = %v, want 20", got)
	}
}

func TestCToFPtr(t *testing.T) {
	if CToFPtr(nil) != nil {
		t.Fatalf("CToFPtr(nil) should be nil")
	}
	c := 22.0
	if got := CToFPtr(&c); got == nil || *got != 72 {
		t.Fatalf("CToFPtr(22.0) = %v, want 72", got)
	}
}
