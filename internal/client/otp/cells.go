package otp

import (
	"errors"
	"strings"
)

var (
	ErrNotDigit       = errors.New("not a digit")
	ErrCellOutOfRange = errors.New("cell out of range")
)

// Cells is the digit-entry half of a challenge. Each cell holds "" or one
// ASCII numeral.
type Cells struct {
	digits []string
	focus  int
}

func NewCells(n int) *Cells {
	if n < 1 {
		n = 1
	}
	return &Cells{digits: make([]string, n)}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (c *Cells) last() int {
	return len(c.digits) - 1
}

// Input applies value typed or pasted into cell i.
//
// An empty value clears the cell. One numeral is written and focus moves to
// the next cell. A longer value is a paste: its numerals are written from i
// onwards, whatever does not fit is dropped, and focus moves past the last
// written cell. A single non-numeral, or a paste without any, changes
// nothing and returns ErrNotDigit.
func (c *Cells) Input(i int, value string) error {
	if i < 0 || i > c.last() {
		return ErrCellOutOfRange
	}

	if value == "" {
		c.digits[i] = ""
		c.focus = i
		return nil
	}

	var nums []string
	for _, r := range value {
		if isDigit(r) {
			nums = append(nums, string(r))
		}
	}
	if len(nums) == 0 {
		return ErrNotDigit
	}
	if len([]rune(value)) == 1 {
		c.digits[i] = nums[0]
		c.focus = min(i+1, c.last())
		return nil
	}

	written := 0
	for _, d := range nums {
		if i+written > c.last() {
			break
		}
		c.digits[i+written] = d
		written++
	}
	c.focus = min(i+written, c.last())
	return nil
}

// Backspace clears a filled cell. On an empty cell it moves focus one cell
// back and leaves the contents alone.
func (c *Cells) Backspace(i int) error {
	if i < 0 || i > c.last() {
		return ErrCellOutOfRange
	}
	if c.digits[i] != "" {
		c.digits[i] = ""
		c.focus = i
		return nil
	}
	c.focus = max(i-1, 0)
	return nil
}

func (c *Cells) Complete() bool {
	for _, d := range c.digits {
		if d == "" {
			return false
		}
	}
	return true
}

// Code joins the cells. It is only meaningful when Complete.
func (c *Cells) Code() string {
	return strings.Join(c.digits, "")
}

func (c *Cells) Reset() {
	clear(c.digits)
	c.focus = 0
}

func (c *Cells) Focus() int {
	return c.focus
}

func (c *Cells) Len() int {
	return len(c.digits)
}

// Digits returns a copy of the cells.
func (c *Cells) Digits() []string {
	out := make([]string, len(c.digits))
	copy(out, c.digits)
	return out
}
