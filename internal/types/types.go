// Package types defines the records exchanged between the source task manager,
// the board, and the reconciliation core.
//
// Records are values. Builders named With* return a modified copy and never
// touch the receiver, so a "current" record and its "desired" counterpart can be
// compared field by field without aliasing surprises.
package types

import (
	"errors"
	"strings"
)

// ProjectStatus is the lifecycle state of a source project.
type ProjectStatus string

// Project status constants
const (
	StatusActive  ProjectStatus = "active"
	StatusOnHold  ProjectStatus = "on_hold"
	StatusDropped ProjectStatus = "dropped"
)

// IsValid checks if the status value is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusDropped:
		return true
	}
	return false
}

// ParseProjectStatus converts a user or database supplied string to a ProjectStatus.
// Accepts "on-hold", "on_hold" and "onhold" spellings, case-insensitively.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "":
		return StatusActive, nil
	case "on_hold", "on-hold", "onhold", "hold":
		return StatusOnHold, nil
	case "dropped":
		return StatusDropped, nil
	}
	return "", errors.New("unknown project status: " + s)
}

// Color is a story card color from the board's fixed palette.
type Color string

// Story colors accepted by the board.
const (
	ColorGrey   Color = "grey"
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorPurple Color = "purple"
	ColorTeal   Color = "teal"
)

// Palette returns every valid color in board order.
func Palette() []Color {
	return []Color{ColorGrey, ColorBlue, ColorRed, ColorGreen, ColorOrange, ColorYellow, ColorPurple, ColorTeal}
}

// IsValid reports whether c belongs to the palette.
func (c Color) IsValid() bool {
	for _, p := range Palette() {
		if c == p {
			return true
		}
	}
	return false
}

// ParseColor converts a string to a palette color. "gray" is accepted as "grey".
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if c == "gray" {
		c = ColorGrey
	}
	if !c.IsValid() {
		return "", errors.New("unknown color: " + s)
	}
	return c, nil
}

// Sentinel errors returned by board implementations when resolving a project.
var (
	ErrProjectNotFound  = errors.New("board project not found")
	ErrAmbiguousProject = errors.New("board project name is ambiguous")
)
