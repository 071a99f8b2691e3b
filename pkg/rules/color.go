package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RGB is an 8-bit-per-channel sRGB color.
type RGB struct {
	R, G, B uint8
}

// ParseColor reads #rgb, #rrggbb and rgb(r,g,b) forms.
func ParseColor(raw string) (RGB, bool) {
	s := strings.TrimSpace(strings.ToLower(raw))

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 3:
			r, okR := parseHexByte(string([]byte{hex[0], hex[0]}))
			g, okG := parseHexByte(string([]byte{hex[1], hex[1]}))
			b, okB := parseHexByte(string([]byte{hex[2], hex[2]}))
			if okR && okG && okB {
				return RGB{r, g, b}, true
			}
		case 6:
			r, okR := parseHexByte(hex[0:2])
			g, okG := parseHexByte(hex[2:4])
			b, okB := parseHexByte(hex[4:6])
			if okR && okG && okB {
				return RGB{r, g, b}, true
			}
		}
		return RGB{}, false
	}

	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return RGB{}, false
		}
		var ch [3]uint8
		for i, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 || n > 255 {
				return RGB{}, false
			}
			ch[i] = uint8(n)
		}
		return RGB{ch[0], ch[1], ch[2]}, true
	}

	return RGB{}, false
}

func parseHexByte(s string) (uint8, bool) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

// Hex renders the color as lowercase #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HSL converts to hue [0,360), saturation [0,1], lightness [0,1].
func (c RGB) HSL() (h, s, l float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2

	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	case b:
		h = (r-g)/d + 4
	}
	h *= 60
	return h, s, l
}

// HSLToRGB converts hue [0,360), saturation [0,1], lightness [0,1] back to
// 8-bit sRGB.
func HSLToRGB(h, s, l float64) RGB {
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return RGB{v, v, v}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	hk := h / 360
	r := hueToChannel(p, q, hk+1.0/3)
	g := hueToChannel(p, q, hk)
	b := hueToChannel(p, q, hk-1.0/3)

	return RGB{
		R: uint8(math.Round(r * 255)),
		G: uint8(math.Round(g * 255)),
		B: uint8(math.Round(b * 255)),
	}
}

func hueToChannel(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// ShiftLightness moves the color's HSL lightness by delta, clamped to [0,1].
func ShiftLightness(c RGB, delta float64) RGB {
	h, s, l := c.HSL()
	l = clamp01(l + delta)
	return HSLToRGB(h, s, l)
}

// RelativeLuminance implements the WCAG 2.1 definition over sRGB channels.
func RelativeLuminance(c RGB) float64 {
	r := linearize(float64(c.R) / 255)
	g := linearize(float64(c.G) / 255)
	b := linearize(float64(c.B) / 255)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func linearize(ch float64) float64 {
	if ch <= 0.03928 {
		return ch / 12.92
	}
	return math.Pow((ch+0.055)/1.055, 2.4)
}

// ContrastRatio returns the WCAG contrast ratio between two colors,
// from 1 (identical luminance) to 21 (black on white).
func ContrastRatio(a, b RGB) float64 {
	la := RelativeLuminance(a)
	lb := RelativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// DeriveContrast finds a color in the base's hue that meets the target
// contrast ratio against the base. It walks lightness toward whichever pole
// (black or white) can reach the higher ratio, then binary-searches the
// lightness for the closest color still meeting the target. Returns the
// color, the achieved ratio, and whether the target was met. When even the
// pole cannot reach the target, the pole color is returned with met=false.
func DeriveContrast(base RGB, target float64) (RGB, float64, bool) {
	lum := RelativeLuminance(base)
	vsBlack := (lum + 0.05) / 0.05
	vsWhite := 1.05 / (lum + 0.05)

	poleL := 0.0
	best := vsBlack
	if vsWhite > vsBlack {
		poleL = 1.0
		best = vsWhite
	}

	h, s, baseL := base.HSL()

	if best < target {
		pole := HSLToRGB(h, s, poleL)
		return pole, ContrastRatio(base, pole), false
	}

	// Lightness is swept between the base and the pole. The ratio grows
	// monotonically toward the pole, so bisection converges; 24 iterations
	// pin the lightness well below one 8-bit quantization step.
	lo, hi := baseL, poleL
	for i := 0; i < 24; i++ {
		mid := (lo + hi) / 2
		candidate := HSLToRGB(h, s, mid)
		if ContrastRatio(base, candidate) >= target {
			hi = mid
		} else {
			lo = mid
		}
	}

	result := HSLToRGB(h, s, hi)
	return result, ContrastRatio(base, result), true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
