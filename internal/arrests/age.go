package arrests

// AgeRanges lists the fixed age buckets in output order.
var AgeRanges = []string{"0-17", "18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

// AgeRange buckets an age into its fixed range label. Callers must apply
// the age quality condition first (zero means unknown).
func AgeRange(age int) string {
	switch {
	case age < 18:
		return "0-17"
	case age <= 24:
		return "18-24"
	case age <= 34:
		return "25-34"
	case age <= 44:
		return "35-44"
	case age <= 54:
		return "45-54"
	case age <= 64:
		return "55-64"
	default:
		return "65+"
	}
}
