package catalog

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/spigell/crna-fit/internal/fitscore"
)

const (
	MatchIDField    = "ID"
	MatchStateField = "State"
)

type Matches struct {
	Items []*Match
}

type Match struct {
	School *fitscore.School `json:"school"`
	Result fitscore.Result  `json:"result"`
	Color  string           `json:"color"`
	Advice *Advice          `json:"advice,omitempty"`
}

// Advice is the optional narrative attached by the ai_advice step.
type Advice struct {
	Summary   string   `json:"summary,omitempty"`
	NextSteps []string `json:"nextSteps,omitempty"`
	Raw       string   `json:"-"`
	Error     string   `json:"error,omitempty"`
}

func (m *Match) GetStringField(name string) string {
	switch name {
	case MatchIDField:
		return m.School.ID
	case MatchStateField:
		return strings.ToUpper(strings.TrimSpace(m.School.State))
	default:
		return ""
	}
}

func (m *Matches) Len() int {
	return len(m.Items)
}

func (m *Matches) FindByID(id string) *Match {
	for _, match := range m.Items {
		if match.School.ID == id {
			return match
		}
	}
	return nil
}

// SortByScore orders matches from best to worst; ties are ordered by school name.
func (m *Matches) SortByScore() {
	sort.SliceStable(m.Items, func(i, j int) bool {
		a, b := m.Items[i], m.Items[j]
		if a.Result.Score != b.Result.Score {
			return a.Result.Score > b.Result.Score
		}
		return a.School.Name < b.School.Name
	})
}

// Exclude removes every match whose field equals one of targets and returns the removed
// school IDs. Order of the remaining matches is preserved.
func (m *Matches) Exclude(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if name == MatchStateField {
			t = strings.ToUpper(strings.TrimSpace(t))
		}
		set[t] = struct{}{}
	}

	return m.removeIf(func(match *Match) bool {
		_, ok := set[match.GetStringField(name)]
		return ok
	})
}

// KeepOnly removes every match whose field is not one of targets.
func (m *Matches) KeepOnly(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if name == MatchStateField {
			t = strings.ToUpper(strings.TrimSpace(t))
		}
		set[t] = struct{}{}
	}

	return m.removeIf(func(match *Match) bool {
		_, ok := set[match.GetStringField(name)]
		return !ok
	})
}

// ExcludeBelow removes matches scoring under minimum.
func (m *Matches) ExcludeBelow(minimum int) []string {
	return m.removeIf(func(match *Match) bool {
		return match.Result.Score < minimum
	})
}

func (m *Matches) removeIf(drop func(*Match) bool) []string {
	var excluded []string
	kept := m.Items[:0]
	for _, match := range m.Items {
		if drop(match) {
			excluded = append(excluded, match.School.ID)
			continue
		}
		kept = append(kept, match)
	}
	m.Items = kept
	return excluded
}

// ReportByState groups a short description of every match by school state.
func (m *Matches) ReportByState() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, match := range m.Items {
		key := match.GetStringField(MatchStateField)
		if key == "" {
			key = "unknown"
		}

		entry := map[string]string{
			"name":    match.School.Name,
			"city":    match.School.City,
			"score":   strconv.Itoa(match.Result.Score),
			"color":   match.Color,
			"message": match.Result.Message,
		}

		warnings := make([]string, 0)
		for _, c := range match.Result.Warnings() {
			warnings = append(warnings, c.Label)
		}
		if len(warnings) > 0 {
			entry["warnings"] = strings.Join(warnings, ", ")
		}

		if match.Advice != nil {
			if match.Advice.Error != "" {
				entry["advice_error"] = match.Advice.Error
			} else if match.Advice.Summary != "" {
				entry["advice"] = match.Advice.Summary
			}
		}

		report[key] = append(report[key], entry)
	}
	return report
}

func (m *Matches) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (m *Matches) ToExcluded(reason string) *ExcludedSchools {
	excluded := &ExcludedSchools{}
	for _, match := range m.Items {
		excluded.Items = append(excluded.Items, &ExcludedSchool{
			ID:         match.School.ID,
			Name:       match.School.Name,
			State:      match.School.State,
			Score:      match.Result.Score,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

func (m *Matches) String() string {
	var b strings.Builder
	for i, match := range m.Items {
		fmt.Fprintf(&b, "%2d. %-40s %-3s %3d%% %s\n", i+1, match.School.Name, match.School.State, match.Result.Score, match.Color)
	}
	return b.String()
}
