package geo

// ValidationStats counts what Clean removed.
type ValidationStats struct {
	Input      int
	OutOfRange int
	ZeroFix    int
	Duplicates int
	Kept       int
}

type position struct{ lat, lon float64 }

// Validate drops unusable fixes and repeated positions. See Clean.
func Validate(samples []Sample) []Sample {
	out, _ := Clean(samples)
	return out
}

// Clean drops fixes outside [-90,90] latitude or [-180,180] longitude (NaN
// included), drops the (0,0) fix that receivers emit without a solution, and
// then drops any repeat of an already kept (latitude, longitude) pair. The
// first occurrence wins and order is otherwise preserved. The input is not
// modified. An empty result is valid.
func Clean(samples []Sample) ([]Sample, ValidationStats) {
	st := ValidationStats{Input: len(samples)}
	out := make([]Sample, 0, len(samples))
	seen := make(map[position]struct{}, len(samples))
	for _, s := range samples {
		if !inRange(s) {
			st.OutOfRange++
			continue
		}
		if s.Latitude == 0 && s.Longitude == 0 {
			st.ZeroFix++
			continue
		}
		key := position{s.Latitude, s.Longitude}
		if _, dup := seen[key]; dup {
			st.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	st.Kept = len(out)
	return out, st
}

// inRange is false for NaN coordinates since every comparison fails.
func inRange(s Sample) bool {
	return s.Latitude >= -90 && s.Latitude <= 90 &&
		s.Longitude >= -180 && s.Longitude <= 180
}
