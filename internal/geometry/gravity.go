package geometry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedGravity marks gravities that need content detection.
	ErrUnsupportedGravity = errors.New("gravity requires content detection")
	ErrUnknownGravity     = errors.New("unknown gravity")
)

// Gravity names one of nine anchor points on an image.
type Gravity int

const (
	NorthWest Gravity = iota
	North
	NorthEast
	West
	Center
	East
	SouthWest
	South
	SouthEast
)

var gravityNames = [...]string{
	NorthWest: "nw",
	North:     "north",
	NorthEast: "ne",
	West:      "west",
	Center:    "center",
	East:      "east",
	SouthWest: "sw",
	South:     "south",
	SouthEast: "se",
}

func (g Gravity) String() string {
	if g < NorthWest || g > SouthEast {
		return fmt.Sprintf("gravity(%d)", int(g))
	}
	return gravityNames[g]
}

func ParseGravity(s string) (Gravity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range gravityNames {
		if name == s {
			return Gravity(i), nil
		}
	}
	switch s {
	case "face", "auto":
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedGravity, s)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGravity, s)
	}
}

type hAnchor int

const (
	anchorLeft hAnchor = iota
	anchorHCenter
	anchorRight
)

type vAnchor int

const (
	anchorTop vAnchor = iota
	anchorMiddle
	anchorBottom
)

func (g Gravity) anchors() (hAnchor, vAnchor) {
	switch g {
	case NorthWest:
		return anchorLeft, anchorTop
	case North:
		return anchorHCenter, anchorTop
	case NorthEast:
		return anchorRight, anchorTop
	case West:
		return anchorLeft, anchorMiddle
	case Center:
		return anchorHCenter, anchorMiddle
	case East:
		return anchorRight, anchorMiddle
	case SouthWest:
		return anchorLeft, anchorBottom
	case South:
		return anchorHCenter, anchorBottom
	case SouthEast:
		return anchorRight, anchorBottom
	default:
		panic(fmt.Sprintf("geometry: invalid gravity %d", int(g)))
	}
}

// VerticallyCentered reports whether voffset applies to g.
func (g Gravity) VerticallyCentered() bool {
	_, v := g.anchors()
	return v == anchorMiddle
}
