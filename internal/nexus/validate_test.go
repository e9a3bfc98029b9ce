package nexus

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	good := Encode(testReading)
	noConst := good &^ (Frame(0xF) << 8)

	tests := []struct {
		name    string
		frames  [WindowSize]Frame
		wantErr error
	}{
		{"identical", [WindowSize]Frame{good, good, good}, nil},
		{"first differs", [WindowSize]Frame{good ^ 1, good, good}, ErrFrameMismatch},
		{"last differs", [WindowSize]Frame{good, good, good ^ 1<<35}, ErrFrameMismatch},
		{"two agree, not majority voted", [WindowSize]Frame{good, good ^ 4, good}, ErrFrameMismatch},
		{"const wrong", [WindowSize]Frame{noConst, noConst, noConst}, ErrConstMismatch},
		{"all zero", [WindowSize]Frame{}, ErrConstMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Validate(tt.frames)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err: got %v, want %v", err, tt.wantErr)
			}
			if err == nil && f != good {
				t.Errorf("frame: got 0x%09x, want 0x%09x", uint64(f), uint64(good))
			}
		})
	}
}

func TestWindowWrapsEveryThirdFrame(t *testing.T) {
	var w window
	for i := 1; i <= 9; i++ {
		wrapped := w.add(Frame(i))
		if want := i%WindowSize == 0; wrapped != want {
			t.Errorf("frame %d: wrapped got %v, want %v", i, wrapped, want)
		}
	}
	if w.frames != [WindowSize]Frame{7, 8, 9} {
		t.Errorf("frames: got %v, want [7 8 9]", w.frames)
	}
}

func TestAccumulatorStates(t *testing.T) {
	var a accumulator

	if _, res := a.push(Bit1); res != accNone {
		t.Errorf("bit before sync: got result %d, want none", res)
	}
	a.push(Sync)
	for i := 0; i < FrameBits-1; i++ {
		if _, res := a.push(Bit1); res != accNone {
			t.Fatalf("bit %d: got result %d", i, res)
		}
	}
	if _, res := a.push(Noise); res != accNone {
		t.Errorf("noise: got result %d", res)
	}
	f, res := a.push(Bit1)
	if res != accFrame {
		t.Fatalf("36th bit: got result %d, want frame", res)
	}
	if f != frameMask {
		t.Errorf("frame: got 0x%x, want 0x%x", uint64(f), uint64(frameMask))
	}
	if _, res := a.push(Bit0); res != accOverrun {
		t.Errorf("37th bit: got result %d, want overrun", res)
	}
	if _, res := a.push(Bit0); res != accNone {
		t.Errorf("bit after overrun: got result %d, want none", res)
	}
}

func TestBurstEdgesTiming(t *testing.T) {
	f := Encode(testReading)
	edges := BurstEdges(10, f, 2)
	if len(edges) != 1+2*(FrameBits+1) {
		t.Fatalf("len: got %d, want %d", len(edges), 1+2*(FrameBits+1))
	}
	if edges[0] != 10 {
		t.Errorf("priming edge: got %d, want 10", edges[0])
	}

	var got Frame
	for i := 1; i < FrameBits+2; i++ {
		switch s := Classify(Delta(edges[i-1], edges[i])); {
		case i == 1:
			if s != Sync {
				t.Fatalf("edge 1: got %s, want SYNC", s)
			}
		case s == Bit0:
			got <<= 1
		case s == Bit1:
			got = got<<1 | 1
		default:
			t.Fatalf("edge %d: unexpected %s", i, s)
		}
	}
	if got != f {
		t.Errorf("decoded timing: got 0x%09x, want 0x%09x", uint64(got), uint64(f))
	}
}
