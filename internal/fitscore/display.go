package fitscore

const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
)

// Color maps a score to the badge color used by the UI.
func Color(score int) string {
	switch {
	case score >= 80:
		return ColorGreen
	case score >= 60:
		return ColorYellow
	default:
		return ColorRed
	}
}

// StatusIcon returns the icon identifier for a criterion status.
func StatusIcon(status Status) string {
	switch status {
	case StatusPass:
		return "CheckCircle2"
	case StatusWarning:
		return "AlertCircle"
	case StatusInfo:
		return "Info"
	case StatusUnknown:
		return "HelpCircle"
	case StatusBonus:
		return "Star"
	default:
		return "Circle"
	}
}
