package geo

// Downsample bounds samples to at most maxCount elements by keeping every
// stride-th sample, starting with the first. The stride is
// ceil(len/maxCount), so the last sample survives only when it lands on a
// stride boundary. Inputs already within the bound, or a non-positive
// maxCount, are returned unchanged.
func Downsample(samples []Sample, maxCount int) []Sample {
	n := len(samples)
	if maxCount <= 0 || n <= maxCount {
		return samples
	}
	stride := (n + maxCount - 1) / maxCount
	out := make([]Sample, 0, (n+stride-1)/stride)
	for i := 0; i < n; i += stride {
		out = append(out, samples[i])
	}
	return out
}
