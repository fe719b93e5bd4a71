package exposure

import "exposureserver/internal/model"

// DefaultISO is the ISO baseline used before any feedback exists.
const DefaultISO = 400

// PolicyInput gathers everything the recommendation policy looks at.
type PolicyInput struct {
	Stats         Statistics
	Color         RGB
	FixedAperture string
	BaselineISO   int
}

// Recommendation is the pair of setting sets produced for one photograph.
type Recommendation struct {
	WithoutFilter model.RecommendationSet `json:"without_filter"`
	WithFilter    model.RecommendationSet `json:"with_filter"`
}

// Recommend maps measured statistics to two complete setting sets. It is a
// pure function; callers must validate in.Stats first.
func Recommend(in PolicyInput) Recommendation {
	aperture := model.DefaultAperture
	if in.FixedAperture != "" {
		aperture = in.FixedAperture
	}
	wb := SelectWhiteBalance(in.Color)

	return Recommendation{
		WithoutFilter: model.RecommendationSet{
			ISO:          in.BaselineISO,
			ShutterSpeed: model.Shutter250,
			Aperture:     aperture,
			WhiteBalance: wb,
			NDFilter:     model.NDNone,
		},
		WithFilter: model.RecommendationSet{
			ISO:          2 * in.BaselineISO,
			ShutterSpeed: model.Shutter125,
			Aperture:     aperture,
			WhiteBalance: wb,
			NDFilter:     SelectNDFilter(in.Stats.Mean, in.Stats.StdDev),
		},
	}
}

// SelectNDFilter picks a filter strength from brightness and contrast.
//
// ND4 is reachable from two branches: inside the bright/contrasty gate when
// no stronger filter applies, and for dark scenes outside the gate.
func SelectNDFilter(avg, stddev float64) model.NDFilter {
	if avg > 0.8 || stddev > 0.2 {
		switch {
		case avg > 0.9 || stddev > 0.25:
			return model.ND64
		case avg > 0.8:
			return model.ND32
		case avg > 0.7:
			return model.ND16
		case avg > 0.6:
			return model.ND8
		default:
			return model.ND4
		}
	}
	if avg < 0.6 {
		return model.ND4
	}
	return model.NDNone
}

// SelectWhiteBalance picks a preset from the dominant channel of c.
func SelectWhiteBalance(c RGB) model.WhiteBalance {
	switch {
	case c.R > 200 && c.G > 200 && c.B > 200:
		return model.WhiteBalanceDaylight
	case c.B > c.R && c.B > c.G:
		return model.WhiteBalanceDusk
	case c.R > c.G && c.R > c.B:
		return model.WhiteBalanceSunset
	default:
		return model.WhiteBalanceAuto
	}
}
