package kea

import (
	"fmt"
	"strings"
)

// LayerType classifies a band's values. It is stored in LAYER_TYPE.
type LayerType uint8

const (
	Continuous LayerType = 0
	Thematic   LayerType = 1
)

var layerTypeNames = []string{"continuous", "thematic"}

func (t LayerType) String() string {
	if int(t) < len(layerTypeNames) {
		return layerTypeNames[t]
	}
	return fmt.Sprintf("LayerType(%d)", uint8(t))
}

// LayerTypeFromCode maps a LAYER_TYPE code to its value.
func LayerTypeFromCode(code uint64) (LayerType, error) {
	if code >= uint64(len(layerTypeNames)) {
		return 0, fmt.Errorf("layer type code %d: %w", code, ErrType)
	}
	return LayerType(code), nil
}

// ParseLayerType maps a name such as "thematic" to its value.
func ParseLayerType(name string) (LayerType, error) {
	i, ok := indexOf(layerTypeNames, name)
	if !ok {
		return 0, fmt.Errorf("layer type %q: %w", name, ErrType)
	}
	return LayerType(i), nil
}

// ColourInterp is a band's colour interpretation, stored in LAYER_USAGE.
type ColourInterp uint8

const (
	Generic ColourInterp = iota
	GreyIndex
	PaletteIndex
	RedBand
	GreenBand
	BlueBand
	AlphaBand
	HueBand
	SaturationBand
	LightnessBand
	CyanBand
	MagentaBand
	YellowBand
	BlackBand
)

var colourInterpNames = []string{
	"generic", "greyindex", "paletteindex", "redband", "greenband",
	"blueband", "alphaband", "hueband", "saturationband", "lightnessband",
	"cyanband", "magentaband", "yellowband", "blackband",
}

func (c ColourInterp) String() string {
	if int(c) < len(colourInterpNames) {
		return colourInterpNames[c]
	}
	return fmt.Sprintf("ColourInterp(%d)", uint8(c))
}

// ColourInterpFromCode maps a LAYER_USAGE code to its value.
func ColourInterpFromCode(code uint64) (ColourInterp, error) {
	if code >= uint64(len(colourInterpNames)) {
		return 0, fmt.Errorf("colour interpretation code %d: %w", code, ErrType)
	}
	return ColourInterp(code), nil
}

// ParseColourInterp maps a name such as "redband" to its value.
func ParseColourInterp(name string) (ColourInterp, error) {
	i, ok := indexOf(colourInterpNames, name)
	if !ok {
		return 0, fmt.Errorf("colour interpretation %q: %w", name, ErrType)
	}
	return ColourInterp(i), nil
}

// RatType is the storage category of a RAT column. Each category has its
// own data dataset under ATT/DATA and field records under ATT/HEADER.
type RatType uint8

const (
	RatBool RatType = iota
	RatInt
	RatFloat
	RatString
)

var ratTypes = []RatType{RatBool, RatInt, RatFloat, RatString}

var ratTypeNames = []string{"BOOL", "INT", "FLOAT", "STRING"}

func (t RatType) String() string {
	if int(t) < len(ratTypeNames) {
		return ratTypeNames[t]
	}
	return fmt.Sprintf("RatType(%d)", uint8(t))
}

// dataset is the name of the category's dataset under ATT/DATA.
func (t RatType) dataset() string {
	return t.String()
}

// fields is the name of the category's record dataset under ATT/HEADER.
func (t RatType) fields() string {
	return t.String() + "_FIELDS"
}

func indexOf(names []string, name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
