package timeline

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Property names one animatable scalar on a clip. Transform and audio
// properties are fixed; effect parameters are addressed dynamically as
// "effect.<effectID>.<param>" so plugins get keyframes without schema changes.
type Property string

const (
	PropX        Property = "transform.x"
	PropY        Property = "transform.y"
	PropZ        Property = "transform.z"
	PropScaleX   Property = "transform.scaleX"
	PropScaleY   Property = "transform.scaleY"
	PropRotation Property = "transform.rotation"
	PropAnchorX  Property = "transform.anchorX"
	PropAnchorY  Property = "transform.anchorY"
	PropOpacity  Property = "transform.opacity"
	PropVolume   Property = "audio.volume"
)

const effectPropPrefix = "effect."

var transformProps = mapset.NewSet(
	PropX, PropY, PropZ,
	PropScaleX, PropScaleY, PropRotation,
	PropAnchorX, PropAnchorY, PropOpacity,
)

// EffectParam builds the property name for one parameter of one effect
// instance.
func EffectParam(effectID, param string) Property {
	return Property(fmt.Sprintf("%s%s.%s", effectPropPrefix, effectID, param))
}

// EffectRef splits an effect property back into its instance id and parameter
// name. ok is false for transform and audio properties.
func (p Property) EffectRef() (effectID, param string, ok bool) {
	rest, found := strings.CutPrefix(string(p), effectPropPrefix)
	if !found {
		return "", "", false
	}
	effectID, param, found = strings.Cut(rest, ".")
	if !found || effectID == "" || param == "" {
		return "", "", false
	}
	return effectID, param, true
}

// Valid reports whether p addresses something a clip can animate.
func (p Property) Valid() bool {
	if transformProps.Contains(p) || p == PropVolume {
		return true
	}
	_, _, ok := p.EffectRef()
	return ok
}

// IsTransform reports whether p lands on the clip transform.
func (p Property) IsTransform() bool {
	return transformProps.Contains(p)
}

// baseValue reads the static (un-animated) value of p from the clip.
func (c Clip) baseValue(p Property) (float64, bool) {
	switch p {
	case PropX:
		return c.Transform.X, true
	case PropY:
		return c.Transform.Y, true
	case PropZ:
		return c.Transform.Z, true
	case PropScaleX:
		return c.Transform.ScaleX, true
	case PropScaleY:
		return c.Transform.ScaleY, true
	case PropRotation:
		return c.Transform.Rotation, true
	case PropAnchorX:
		return c.Transform.AnchorX, true
	case PropAnchorY:
		return c.Transform.AnchorY, true
	case PropOpacity:
		return c.Transform.Opacity, true
	case PropVolume:
		return c.Volume, true
	}
	if effectID, param, ok := p.EffectRef(); ok {
		for _, e := range c.Effects {
			if e.ID == effectID {
				v, exists := e.Params[param]
				return v, exists
			}
		}
	}
	return 0, false
}

// setBaseValue writes the static value of p, returning the updated clip.
// Effect params are written copy-on-write so shared revisions stay intact.
func (c Clip) setBaseValue(p Property, v float64) (Clip, bool) {
	switch p {
	case PropX:
		c.Transform.X = v
	case PropY:
		c.Transform.Y = v
	case PropZ:
		c.Transform.Z = v
	case PropScaleX:
		c.Transform.ScaleX = v
	case PropScaleY:
		c.Transform.ScaleY = v
	case PropRotation:
		c.Transform.Rotation = v
	case PropAnchorX:
		c.Transform.AnchorX = v
	case PropAnchorY:
		c.Transform.AnchorY = v
	case PropOpacity:
		c.Transform.Opacity = v
	case PropVolume:
		c.Volume = v
	default:
		effectID, param, ok := p.EffectRef()
		if !ok {
			return c, false
		}
		for i, e := range c.Effects {
			if e.ID != effectID {
				continue
			}
			params := make(map[string]float64, len(e.Params)+1)
			for k, val := range e.Params {
				params[k] = val
			}
			params[param] = v
			effects := make([]Effect, len(c.Effects))
			copy(effects, c.Effects)
			effects[i].Params = params
			c.Effects = effects
			return c, true
		}
		return c, false
	}
	return c, true
}
