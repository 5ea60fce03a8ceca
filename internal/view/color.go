// Package view turns cached backend reads into the page models the browser shell
// renders.
package view

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultOverlayColor is used whenever a configured color is not #RRGGBB.
const DefaultOverlayColor = "#1A2C45"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func IsValidHexColor(s string) bool { return hexColor.MatchString(s) }

// HexToRGB parses a #RRGGBB color, falling back to DefaultOverlayColor.
func HexToRGB(s string) RGB {
	if !IsValidHexColor(s) {
		s = DefaultOverlayColor
	}
	channel := func(i int) uint8 {
		v, _ := strconv.ParseUint(s[i:i+2], 16, 8)
		return uint8(v)
	}
	return RGB{R: channel(1), G: channel(3), B: channel(5)}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// RGBA renders the CSS color for c at the given opacity percentage.
func RGBA(c RGB, opacityPct int) string {
	alpha := strconv.FormatFloat(float64(Clamp(opacityPct, 0, 100))/100, 'f', -1, 64)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, alpha)
}
