package fitscore

import (
	"fmt"
	"math"
	"strings"
)

const (
	weightGPA        = 25
	weightGRE        = 20
	weightExperience = 20
	weightYears      = 15
	weightCCRN       = 10
	bonusState       = 5

	defaultMinimumGPA        = 3.0
	defaultMinimumExperience = 1.0

	gpaCloseMargin   = 0.3
	yearsCloseMargin = 0.5
)

const (
	CriterionGPA        = "gpa"
	CriterionGRE        = "gre"
	CriterionExperience = "experience"
	CriterionYears      = "years"
	CriterionCCRN       = "ccrn"
	CriterionState      = "state"
)

var standardICUTypes = map[string]struct{}{
	"micu":       {},
	"sicu":       {},
	"cvicu":      {},
	"ccu":        {},
	"cticu":      {},
	"neuro_icu":  {},
	"trauma_icu": {},
	"mixed_icu":  {},
}

// evaluation is the internal result of one rule. counted is false when the criterion
// must not touch the earned/total tally at all.
type evaluation struct {
	Criterion
	weight  int
	counted bool
}

// Calculate scores profile against school. It never fails: missing data lands in an
// unknown or neutral branch. Nil arguments behave like empty records.
func Calculate(school *School, profile *UserProfile) Result {
	if school == nil {
		school = &School{}
	}
	if profile == nil {
		profile = &UserProfile{}
	}

	evaluations := []evaluation{
		evaluateGPA(school, profile),
		evaluateGRE(school, profile),
		evaluateExperience(school, profile),
		evaluateYears(school, profile),
		evaluateCCRN(school, profile),
		evaluateState(school, profile),
	}

	earned, total := 0, 0
	breakdown := make([]Criterion, 0, len(evaluations))
	for _, e := range evaluations {
		if e.counted {
			earned += e.Points
			total += e.weight
		}
		if e.Display {
			breakdown = append(breakdown, e.Criterion)
		}
	}

	result := Result{
		Score:        score(earned, total),
		Breakdown:    breakdown,
		EarnedPoints: earned,
		TotalPoints:  total,
	}
	result.Message = message(result.Score, result.Warnings())

	return result
}

// score keeps the state bonus in the numerator only, so it can lift the ratio but the
// result is capped at 100.
func score(earned, total int) int {
	if total <= 0 {
		return 0
	}
	ratio := float64(earned) / float64(total) * 100
	s := int(math.Round(math.Min(100, ratio)))
	if s < 0 {
		return 0
	}
	return s
}

func message(score int, warnings []Criterion) string {
	switch {
	case score >= 90:
		return "Excellent match! You meet or exceed this program's requirements."
	case score >= 75:
		return "Strong match! You're a competitive applicant for this program."
	case score >= 60:
		if len(warnings) == 1 {
			return fmt.Sprintf("Good fit. Strengthening your %s would make you more competitive.", warnings[0].Label)
		}
		return "Solid option with a few areas to strengthen."
	case score >= 40:
		return "Worth considering. Review the requirements carefully before applying."
	default:
		return "May need significant preparation."
	}
}

func newEvaluation(id, label string, weight int, status Status, points int, detail string) evaluation {
	return evaluation{
		Criterion: Criterion{
			ID:      id,
			Label:   label,
			Status:  status,
			Icon:    StatusIcon(status),
			Detail:  detail,
			Points:  points,
			Display: true,
		},
		weight:  weight,
		counted: true,
	}
}

func evaluateGPA(school *School, profile *UserProfile) evaluation {
	required := defaultMinimumGPA
	if school.MinimumGPA != nil {
		required = *school.MinimumGPA
	}

	gpa := profile.ScienceGPA
	if gpa == nil {
		gpa = profile.OverallGPA
	}

	const label = "GPA"
	switch {
	case gpa == nil:
		return newEvaluation(CriterionGPA, label, weightGPA, StatusUnknown, 0,
			fmt.Sprintf("Add your GPA to compare against the %.2f minimum", required))
	case *gpa >= required:
		return newEvaluation(CriterionGPA, label, weightGPA, StatusPass, weightGPA,
			fmt.Sprintf("Your %.2f meets the %.2f minimum", *gpa, required))
	case *gpa > required-gpaCloseMargin:
		return newEvaluation(CriterionGPA, label, weightGPA, StatusWarning, 15,
			fmt.Sprintf("Your %.2f is slightly below the %.2f minimum", *gpa, required))
	default:
		return newEvaluation(CriterionGPA, label, weightGPA, StatusWarning, 5,
			fmt.Sprintf("Your %.2f is below the %.2f minimum", *gpa, required))
	}
}

func evaluateGRE(school *School, profile *UserProfile) evaluation {
	const label = "GRE"
	hasGRE := profile.GREQuantitative != nil && profile.GREVerbal != nil

	switch {
	case !school.GRERequired:
		return newEvaluation(CriterionGRE, label, weightGRE, StatusPass, weightGRE, "GRE not required")
	case strings.TrimSpace(school.GREWaivedFor) != "":
		points := 10
		if hasGRE {
			points = weightGRE
		}
		return newEvaluation(CriterionGRE, label, weightGRE, StatusInfo, points,
			fmt.Sprintf("GRE may be waived for %s", strings.TrimSpace(school.GREWaivedFor)))
	case !hasGRE:
		return newEvaluation(CriterionGRE, label, weightGRE, StatusWarning, 0, "GRE required, no scores on file")
	default:
		return newEvaluation(CriterionGRE, label, weightGRE, StatusPass, weightGRE,
			fmt.Sprintf("GRE on file (Q%d / V%d)", *profile.GREQuantitative, *profile.GREVerbal))
	}
}

func evaluateExperience(school *School, profile *UserProfile) evaluation {
	const label = "ICU Experience"
	primary := normalizeICUType(profile.PrimaryICUType)

	types := make([]string, 0, len(profile.AdditionalICUTypes)+1)
	if primary != "" {
		types = append(types, primary)
	}
	for _, t := range profile.AdditionalICUTypes {
		if t = normalizeICUType(t); t != "" {
			types = append(types, t)
		}
	}

	for _, t := range types {
		if _, ok := standardICUTypes[t]; ok {
			return newEvaluation(CriterionExperience, label, weightExperience, StatusPass, weightExperience,
				fmt.Sprintf("%s experience is accepted", strings.ToUpper(t)))
		}
	}

	if acceptsSpecialty(school, primary) {
		return newEvaluation(CriterionExperience, label, weightExperience, StatusPass, weightExperience,
			fmt.Sprintf("This program accepts %s experience", strings.ToUpper(primary)))
	}

	detail := "Adult ICU experience is preferred"
	if primary != "" {
		detail = fmt.Sprintf("%s experience may not be accepted", strings.ToUpper(primary))
	}
	return newEvaluation(CriterionExperience, label, weightExperience, StatusWarning, 5, detail)
}

func acceptsSpecialty(school *School, icuType string) bool {
	switch icuType {
	case "nicu":
		return school.AcceptsNICU
	case "picu":
		return school.AcceptsPICU
	case "er", "ed":
		return school.AcceptsER
	default:
		return false
	}
}

func normalizeICUType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

func evaluateYears(school *School, profile *UserProfile) evaluation {
	required := defaultMinimumExperience
	if school.MinimumExperience != nil {
		required = *school.MinimumExperience
	}

	const label = "Years of Experience"
	years := profile.TotalYearsExperience
	switch {
	case years == nil:
		return newEvaluation(CriterionYears, label, weightYears, StatusUnknown, 0,
			fmt.Sprintf("Add your experience to compare against the %s minimum", formatYears(required)))
	case *years >= required:
		return newEvaluation(CriterionYears, label, weightYears, StatusPass, weightYears,
			fmt.Sprintf("%s meets the %s minimum", formatYears(*years), formatYears(required)))
	case *years >= required-yearsCloseMargin:
		return newEvaluation(CriterionYears, label, weightYears, StatusWarning, 10,
			fmt.Sprintf("%s is close to the %s minimum", formatYears(*years), formatYears(required)))
	default:
		return newEvaluation(CriterionYears, label, weightYears, StatusWarning, 5,
			fmt.Sprintf("%s is below the %s minimum", formatYears(*years), formatYears(required)))
	}
}

func formatYears(y float64) string {
	if y == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%g years", y)
}

func evaluateCCRN(school *School, profile *UserProfile) evaluation {
	const label = "CCRN Certification"
	if !school.CCRNRequired {
		e := newEvaluation(CriterionCCRN, label, weightCCRN, StatusInfo, weightCCRN, "CCRN not required")
		e.Display = false
		e.counted = false
		return e
	}

	for _, c := range profile.Certifications {
		if strings.EqualFold(strings.TrimSpace(c.Type), "ccrn") && strings.EqualFold(strings.TrimSpace(c.Status), "passed") {
			return newEvaluation(CriterionCCRN, label, weightCCRN, StatusPass, weightCCRN, "CCRN on file")
		}
	}

	return newEvaluation(CriterionCCRN, label, weightCCRN, StatusWarning, 0, "CCRN required before applying")
}

func evaluateState(school *School, profile *UserProfile) evaluation {
	const label = "Location"
	userState := strings.TrimSpace(profile.State)
	if userState == "" {
		userState = strings.TrimSpace(profile.HospitalState)
	}

	var e evaluation
	switch {
	case userState == "":
		e = newEvaluation(CriterionState, label, bonusState, StatusInfo, 0, "No state on file")
		e.Display = false
	case strings.EqualFold(userState, strings.TrimSpace(school.State)):
		e = newEvaluation(CriterionState, label, bonusState, StatusBonus, bonusState,
			fmt.Sprintf("In-state program (%s)", strings.ToUpper(userState)))
	default:
		e = newEvaluation(CriterionState, label, bonusState, StatusInfo, 0, "Out-of-state program")
		e.Display = false
	}

	// Bonus points reach the numerator only.
	e.weight = 0
	return e
}
