package nexus

import "errors"

// WindowSize is the number of consecutive frames that must agree.
const WindowSize = 3

var (
	// ErrFrameMismatch means the buffered frames were not bit-identical.
	ErrFrameMismatch = errors.New("nexus: buffered frames differ")
	// ErrConstMismatch means the frames agreed but the const nibble was not 0xF.
	ErrConstMismatch = errors.New("nexus: const field mismatch")
)

// window is a fixed ring of the most recently completed frames.
type window struct {
	frames [WindowSize]Frame
	pos    uint8
}

// add stores f and reports whether the write index wrapped back to zero,
// which happens on every WindowSize-th frame.
func (w *window) add(f Frame) bool {
	w.frames[w.pos%WindowSize] = f
	w.pos++
	if w.pos >= WindowSize {
		w.pos = 0
		return true
	}
	return false
}

// Validate checks that all frames are identical and carry the expected
// const nibble. It is a strict equality test: a single differing bit in any
// frame rejects the whole window.
func Validate(frames [WindowSize]Frame) (Frame, error) {
	f := frames[0]
	for i := 1; i < WindowSize; i++ {
		if frames[i] != f {
			return 0, ErrFrameMismatch
		}
	}
	if f.Const() != ConstNibble {
		return 0, ErrConstMismatch
	}
	return f, nil
}
