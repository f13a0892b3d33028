package choreography

import (
	"github.com/fogleman/ease"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	EaseLinear      = "linear"
	EaseIn          = "easeIn"
	EaseOut         = "easeOut"
	EaseInOut       = "easeInOut"
	EaseExponential = "exponential"
)

var easings = map[string]ease.Function{
	EaseLinear:      ease.Linear,
	EaseIn:          ease.InQuad,
	EaseOut:         ease.OutQuad,
	EaseInOut:       ease.InOutQuad,
	EaseExponential: exponential,

	"easeInCubic":    ease.InCubic,
	"easeOutCubic":   ease.OutCubic,
	"easeInOutCubic": ease.InOutCubic,
	"easeInSine":     ease.InSine,
	"easeOutSine":    ease.OutSine,
	"easeInOutSine":  ease.InOutSine,
	"elastic":        ease.OutElastic,
	"bounce":         ease.OutBounce,
}

func exponential(t float64) float64 {
	if t == 0 {
		return 0
	}
	return ease.InExpo(t)
}

// Easing returns the named easing function. An empty name means linear.
func Easing(name string) (ease.Function, bool) {
	if name == "" {
		return ease.Linear, true
	}
	fn, ok := easings[name]
	return fn, ok
}

// EasingNames lists the known easing names in sorted order.
func EasingNames() []string {
	names := maps.Keys(easings)
	slices.Sort(names)
	return names
}
