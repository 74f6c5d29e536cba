package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Color decodes either an SVG color name ("orange") or a hex string
// ("#ff8800", "#ff880080").
type Color struct {
	color.RGBA
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	parsed, err := ParseColor(value.Value)
	if err != nil {
		return err
	}
	c.RGBA = parsed
	return nil
}

// ParseColor parses a color name or hex string.
func ParseColor(v string) (color.RGBA, error) {
	if named, ok := colornames.Map[strings.ToLower(strings.TrimSpace(v))]; ok {
		return named, nil
	}

	s := strings.TrimPrefix(strings.TrimSpace(v), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color format: %s", v)
	}

	parse := func(start int) (uint8, error) {
		n, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(n), err
	}

	var rgba [4]uint8
	rgba[3] = 255
	for i := 0; i < len(s)/2; i++ {
		n, err := parse(i * 2)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %s: %w", v, err)
		}
		rgba[i] = n
	}

	nrgba := color.NRGBA{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
	return color.RGBAModel.Convert(nrgba).(color.RGBA), nil
}
