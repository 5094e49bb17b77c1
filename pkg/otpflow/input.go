package otpflow

import (
	"errors"
	"strings"
)

// CodeLength is the number of digit slots.
const CodeLength = 6

var (
	ErrIncompleteCode = errors.New("incomplete_code: all 6 digits are required")
	ErrInvalidPaste   = errors.New("pasted text must contain only digits")
)

// CodeInput assembles a code one slot at a time. Each slot holds at most one
// decimal digit. The zero value is an empty input focused on slot 0.
type CodeInput struct {
	slots [CodeLength]byte
	focus int
}

// Focus is the index of the slot that receives the next digit.
func (in CodeInput) Focus() int { return in.focus }

// Digit returns the digit in slot i, or 0 and false when it is empty.
func (in CodeInput) Digit(i int) (byte, bool) {
	if i < 0 || i >= CodeLength || in.slots[i] == 0 {
		return 0, false
	}
	return in.slots[i], true
}

// Type writes r into the focused slot and moves focus right. Anything other
// than a single decimal digit is ignored and reported as false.
func (in *CodeInput) Type(r rune) bool {
	if r < '0' || r > '9' {
		return false
	}
	in.slots[in.focus] = byte(r)
	if in.focus < CodeLength-1 {
		in.focus++
	}
	return true
}

// Backspace clears a filled focused slot in place, or on an empty slot moves
// focus one slot left without deleting anything.
func (in *CodeInput) Backspace() {
	if in.slots[in.focus] != 0 {
		in.slots[in.focus] = 0
		return
	}
	if in.focus > 0 {
		in.focus--
	}
}

func (in *CodeInput) Left() {
	if in.focus > 0 {
		in.focus--
	}
}

func (in *CodeInput) Right() {
	if in.focus < CodeLength-1 {
		in.focus++
	}
}

// Paste replaces the input with s. Surrounding whitespace is ignored; any
// other non-digit rejects the paste and leaves the slots untouched. Extra
// digits are dropped and focus lands on the last filled slot.
func (in *CodeInput) Paste(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrInvalidPaste
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ErrInvalidPaste
		}
	}
	if len(s) > CodeLength {
		s = s[:CodeLength]
	}

	in.slots = [CodeLength]byte{}
	for i := range len(s) {
		in.slots[i] = s[i]
	}
	in.focus = len(s) - 1
	return nil
}

// Reset empties every slot and focuses slot 0.
func (in *CodeInput) Reset() {
	*in = CodeInput{}
}

// Complete reports whether every slot is filled.
func (in CodeInput) Complete() bool {
	for _, d := range in.slots {
		if d == 0 {
			return false
		}
	}
	return true
}

// Code returns the assembled code, or ErrIncompleteCode if a slot is empty.
func (in CodeInput) Code() (string, error) {
	if !in.Complete() {
		return "", ErrIncompleteCode
	}
	return string(in.slots[:]), nil
}

// String renders the slots with empty ones as underscores.
func (in CodeInput) String() string {
	var b strings.Builder
	for _, d := range in.slots {
		if d == 0 {
			b.WriteByte('_')
			continue
		}
		b.WriteByte(d)
	}
	return b.String()
}
