package similarity

// ThresholdLevel names a preset minimum cosine similarity.
type ThresholdLevel string

const (
	LevelStrict   ThresholdLevel = "strict"
	LevelModerate ThresholdLevel = "moderate"
	LevelLenient  ThresholdLevel = "lenient"
)

// Threshold maps a level to its similarity cut-off.
// Unknown levels fall back to the moderate preset.
func Threshold(level ThresholdLevel) float64 {
	switch level {
	case LevelStrict:
		return 0.8
	case LevelLenient:
		return 0.4
	default:
		return 0.6
	}
}
