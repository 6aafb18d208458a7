package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/crna-fit/internal/fitscore"
)

// ErrDuplicateSchool is returned when two catalog entries share an ID.
var ErrDuplicateSchool = errors.New("duplicate school id")

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

type Schools struct {
	Items []*fitscore.School
}

// LoadSchools decodes a list of loosely typed school records, as read from a config file
// or a JSON document. Entries without an ID get one derived from their name.
func LoadSchools(raw any) (*Schools, error) {
	var schools []*fitscore.School
	if raw == nil {
		return &Schools{}, nil
	}

	if err := decode(raw, &schools); err != nil {
		return nil, fmt.Errorf("decode schools: %w", err)
	}

	seen := make(map[string]struct{}, len(schools))
	items := make([]*fitscore.School, 0, len(schools))
	for idx, school := range schools {
		if school == nil {
			continue
		}

		school.ID = strings.TrimSpace(school.ID)
		if school.ID == "" {
			school.ID = Slug(school.Name)
		}
		if school.ID == "" {
			return nil, fmt.Errorf("school #%d has neither id nor name", idx)
		}

		if _, ok := seen[school.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSchool, school.ID)
		}
		seen[school.ID] = struct{}{}
		items = append(items, school)
	}

	return &Schools{Items: items}, nil
}

// LoadProfile decodes a loosely typed applicant profile.
func LoadProfile(raw any) (*fitscore.UserProfile, error) {
	profile := &fitscore.UserProfile{}
	if raw == nil {
		return profile, nil
	}

	if err := decode(raw, profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return profile, nil
}

func decode(raw, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(raw)
}

// Slug turns a display name into a stable identifier, e.g. "Texas Wesleyan" -> "texas-wesleyan".
func Slug(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

func (s *Schools) Len() int {
	return len(s.Items)
}

func (s *Schools) FindByID(id string) *fitscore.School {
	for _, school := range s.Items {
		if school.ID == id {
			return school
		}
	}
	return nil
}

// FindByName matches a school display name case-insensitively.
func (s *Schools) FindByName(name string) *fitscore.School {
	for _, school := range s.Items {
		if strings.EqualFold(school.Name, strings.TrimSpace(name)) {
			return school
		}
	}
	return nil
}

func (s *Schools) Names() []string {
	names := make([]string, 0, len(s.Items))
	for _, school := range s.Items {
		names = append(names, school.Name)
	}
	return names
}

// Score computes the fit of profile against every school in the catalog.
func (s *Schools) Score(profile *fitscore.UserProfile) *Matches {
	matches := &Matches{Items: make([]*Match, 0, len(s.Items))}
	for _, school := range s.Items {
		result := fitscore.Calculate(school, profile)
		matches.Items = append(matches.Items, &Match{
			School: school,
			Result: result,
			Color:  fitscore.Color(result.Score),
		})
	}
	return matches
}
