package tags

import (
	"fmt"
	"strings"

	"github.com/conneroisu/htmlinject/internal/errors"
)

// Position selects where new tags go relative to existing ones.
type Position string

const (
	// Below inserts after the last existing tag of the same kind.
	Below Position = "below"
	// Above inserts at the first existing tag of the same kind.
	Above Position = "above"
)

// ParsePosition accepts "above" or "below". Empty means Below.
func ParsePosition(s string) (Position, error) {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case "", Below:
		return Below, nil
	case Above:
		return Above, nil
	}
	return "", errors.NewConfigError(errors.CodeInvalidPlacement,
		fmt.Sprintf("unknown link placement %q, want above or below", s))
}

// Placement selects the parent and position of synthesized scripts.
type Placement string

const (
	HeadAbove Placement = "head-above"
	HeadBelow Placement = "head-below"
	BodyAbove Placement = "body-above"
	BodyBelow Placement = "body-below"
)

// ParsePlacement accepts one of the four placements. Empty means BodyBelow.
func ParsePlacement(s string) (Placement, error) {
	p := Placement(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return BodyBelow, nil
	case HeadAbove, HeadBelow, BodyAbove, BodyBelow:
		return p, nil
	}
	return "", errors.NewConfigError(errors.CodeInvalidPlacement,
		fmt.Sprintf("unknown script placement %q, want head-above, head-below, body-above or body-below", s))
}

// InHead reports whether scripts go to <head>.
func (p Placement) InHead() bool {
	return p == HeadAbove || p == HeadBelow
}

// Position returns the above/below half of the placement.
func (p Placement) Position() Position {
	if p == HeadAbove || p == BodyAbove {
		return Above
	}
	return Below
}

// Options controls the attributes and placement of synthesized tags.
type Options struct {
	PublicPath      string
	CrossOrigin     string
	Defer           bool
	Module          bool
	Integrity       Algorithm
	ScriptPlacement Placement
	LinkPosition    Position
}
