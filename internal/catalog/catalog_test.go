package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/crna-fit/internal/fitscore"
)

func testSchools(t *testing.T) *Schools {
	t.Helper()

	schools, err := LoadSchools([]any{
		map[string]any{
			"name":              "Baylor College of Medicine",
			"minimumgpa":        "3.0",
			"minimumExperience": 1,
			"state":             "TX",
			"city":              "Houston",
		},
		map[string]any{
			"id":           "columbia",
			"name":         "Columbia University",
			"minimumGpa":   3.5,
			"greRequired":  true,
			"ccrnRequired": "true",
			"state":        "ny",
		},
		map[string]any{
			"id":          "ucla",
			"name":        "UCLA",
			"minimumGpa":  3.0,
			"acceptsNicu": true,
			"state":       "CA",
		},
	})
	require.NoError(t, err)
	return schools
}

func TestLoadSchools(t *testing.T) {
	schools := testSchools(t)

	require.Equal(t, 3, schools.Len())

	baylor := schools.FindByID("baylor-college-of-medicine")
	require.NotNil(t, baylor, "expected id derived from name")
	require.NotNil(t, baylor.MinimumGPA)
	assert.Equal(t, 3.0, *baylor.MinimumGPA)
	require.NotNil(t, baylor.MinimumExperience)
	assert.Equal(t, 1.0, *baylor.MinimumExperience)

	columbia := schools.FindByID("columbia")
	require.NotNil(t, columbia)
	assert.True(t, columbia.GRERequired)
	assert.True(t, columbia.CCRNRequired)
	assert.Nil(t, columbia.MinimumExperience)

	assert.Equal(t, "UCLA", schools.FindByName("ucla").Name)
	assert.Equal(t, []string{"Baylor College of Medicine", "Columbia University", "UCLA"}, schools.Names())
}

func TestLoadSchoolsRejectsDuplicates(t *testing.T) {
	_, err := LoadSchools([]any{
		map[string]any{"id": "a", "name": "A"},
		map[string]any{"id": "a", "name": "Another A"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSchool))
}

func TestLoadSchoolsRequiresIdentity(t *testing.T) {
	_, err := LoadSchools([]any{map[string]any{"state": "TX"}})
	require.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	profile, err := LoadProfile(map[string]any{
		"scienceGpa":           "3.4",
		"greQuantitative":      float64(155),
		"greVerbal":            152,
		"primaryIcuType":       "MICU",
		"additionalIcuTypes":   []any{"sicu"},
		"totalYearsExperience": 2.5,
		"certifications":       []any{map[string]any{"type": "ccrn", "status": "passed"}},
		"hospitalState":        "TX",
	})
	require.NoError(t, err)

	require.NotNil(t, profile.ScienceGPA)
	assert.Equal(t, 3.4, *profile.ScienceGPA)
	assert.Nil(t, profile.OverallGPA)
	require.NotNil(t, profile.GREQuantitative)
	assert.Equal(t, 155, *profile.GREQuantitative)
	assert.Equal(t, []string{"sicu"}, profile.AdditionalICUTypes)
	assert.Len(t, profile.Certifications, 1)

	empty, err := LoadProfile(nil)
	require.NoError(t, err)
	assert.Nil(t, empty.ScienceGPA)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "texas-wesleyan-university", Slug("  Texas Wesleyan University "))
	assert.Equal(t, "u-of-m-flint", Slug("U. of M. - Flint"))
	assert.Equal(t, "", Slug("  "))
}

func TestScoreAndSort(t *testing.T) {
	schools := testSchools(t)
	profile := &fitscore.UserProfile{
		ScienceGPA:           fitscore.Float64(3.2),
		PrimaryICUType:       "micu",
		TotalYearsExperience: fitscore.Float64(2),
		HospitalState:        "TX",
	}

	matches := schools.Score(profile)
	require.Equal(t, 3, matches.Len())

	matches.SortByScore()
	assert.Equal(t, "baylor-college-of-medicine", matches.Items[0].School.ID)
	assert.Equal(t, "columbia", matches.Items[2].School.ID)
	assert.Equal(t, fitscore.Color(matches.Items[0].Result.Score), matches.Items[0].Color)

	for i := 1; i < matches.Len(); i++ {
		assert.GreaterOrEqual(t, matches.Items[i-1].Result.Score, matches.Items[i].Result.Score)
	}
}

func TestMatchesExclusion(t *testing.T) {
	schools := testSchools(t)
	profile := &fitscore.UserProfile{ScienceGPA: fitscore.Float64(3.2), PrimaryICUType: "micu"}

	matches := schools.Score(profile)
	removed := matches.Exclude(MatchIDField, []string{"ucla", "missing"})
	assert.Equal(t, []string{"ucla"}, removed)
	assert.Equal(t, 2, matches.Len())

	matches = schools.Score(profile)
	removed = matches.KeepOnly(MatchStateField, []string{"tx", "NY"})
	assert.Equal(t, []string{"ucla"}, removed)
	assert.Equal(t, "baylor-college-of-medicine", matches.Items[0].School.ID, "order is preserved")

	matches = schools.Score(profile)
	columbia := matches.FindByID("columbia").Result.Score
	removed = matches.ExcludeBelow(columbia + 1)
	assert.Contains(t, removed, "columbia")
	assert.Nil(t, matches.FindByID("columbia"))
}

func TestReportByState(t *testing.T) {
	schools := testSchools(t)
	matches := schools.Score(&fitscore.UserProfile{})
	matches.FindByID("ucla").Advice = &Advice{Error: "quota exceeded"}
	matches.FindByID("columbia").Advice = &Advice{Summary: "Take the GRE"}

	report := matches.ReportByState()

	require.Len(t, report["TX"], 1)
	assert.Equal(t, "Baylor College of Medicine", report["TX"][0]["name"])
	assert.Equal(t, "Houston", report["TX"][0]["city"])

	require.Len(t, report["NY"], 1)
	assert.Equal(t, "Take the GRE", report["NY"][0]["advice"])
	assert.Contains(t, report["NY"][0]["warnings"], "GRE")

	require.Len(t, report["CA"], 1)
	assert.Equal(t, "quota exceeded", report["CA"][0]["advice_error"])
	_, ok := report["CA"][0]["advice"]
	assert.False(t, ok)
}

func TestExcludedSchoolsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.json")

	excluded, err := GetExcludedSchoolsFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, excluded.Items)

	matches := testSchools(t).Score(&fitscore.UserProfile{})
	excluded.Append(matches.ToExcluded("not interested"))
	excluded.Append(matches.ToExcluded("duplicate append"))
	require.Len(t, excluded.Items, 3)

	require.NoError(t, excluded.ToFile(path))

	loaded, err := GetExcludedSchoolsFromFile(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"baylor-college-of-medicine", "columbia", "ucla"}, loaded.SchoolIDs())
	assert.Equal(t, "not interested", loaded.Items[0].Reason)

	// Rewriting with fewer entries must not leave trailing bytes behind.
	loaded.Items = loaded.Items[:1]
	require.NoError(t, loaded.ToFile(path))
	again, err := GetExcludedSchoolsFromFile(path)
	require.NoError(t, err)
	assert.Len(t, again.Items, 1)
}
