package profile

const (
	ParamIntensity   = "intensity"
	ParamChaos       = "chaos"
	ParamSpeed       = "speed"
	ParamHue         = "hue"
	ParamSaturation  = "saturation"
	ParamGridDensity = "gridDensity"
	ParamMorphFactor = "morphFactor"
	ParamDimension   = "dimension"

	ParamRot4dXW = "rot4dXW"
	ParamRot4dYW = "rot4dYW"
	ParamRot4dZW = "rot4dZW"
)

// RotationParams are the hyperplane rotation parameters produced by the active rotation pattern.
var RotationParams = []string{ParamRot4dXW, ParamRot4dYW, ParamRot4dZW}

// IsRotation reports whether name is one of the hyperplane rotation parameters.
func IsRotation(name string) bool {
	for _, p := range RotationParams {
		if p == name {
			return true
		}
	}
	return false
}

// Profile describes a controllable visual parameter: its default base value and the range the renderer accepts.
type Profile struct {
	Name    string  `yaml:"name"`
	Default float64 `yaml:"default"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

// Defaults returns the built-in profiles of the 4D visualizer parameters.
func Defaults() map[string]Profile {
	return map[string]Profile{
		ParamIntensity:   {Name: ParamIntensity, Default: 0.5, Min: 0, Max: 1},
		ParamChaos:       {Name: ParamChaos, Default: 0.2, Min: 0, Max: 1},
		ParamSpeed:       {Name: ParamSpeed, Default: 1.0, Min: 0.1, Max: 3},
		ParamHue:         {Name: ParamHue, Default: 200, Min: 0, Max: 360},
		ParamSaturation:  {Name: ParamSaturation, Default: 0.8, Min: 0, Max: 1},
		ParamGridDensity: {Name: ParamGridDensity, Default: 15, Min: 5, Max: 100},
		ParamMorphFactor: {Name: ParamMorphFactor, Default: 1.0, Min: 0, Max: 2},
		ParamDimension:   {Name: ParamDimension, Default: 3.5, Min: 3, Max: 4.5},
		ParamRot4dXW:     {Name: ParamRot4dXW, Default: 0, Min: -6.28, Max: 6.28},
		ParamRot4dYW:     {Name: ParamRot4dYW, Default: 0, Min: -6.28, Max: 6.28},
		ParamRot4dZW:     {Name: ParamRot4dZW, Default: 0, Min: -6.28, Max: 6.28},
	}
}
