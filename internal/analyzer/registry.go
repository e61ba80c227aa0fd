package analyzer

import "fmt"

// NewMeasurer creates a measurer based on the specified variant
func NewMeasurer(variant string) (Measurer, error) {
	switch variant {
	case "luma", "":
		return MeasureFunc(LuminanceProfile), nil
	case "lab":
		return MeasureFunc(LabLightness), nil
	default:
		return nil, fmt.Errorf("unknown measurer variant: %s", variant)
	}
}
