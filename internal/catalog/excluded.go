package catalog

import (
	"errors"
	"io/fs"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

// ExcludedSchools is the persisted list of schools the applicant dismissed.
type ExcludedSchools struct {
	Items []*ExcludedSchool
}

type ExcludedSchool struct {
	ID         string
	Name       string
	State      string
	Score      int
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

// GetExcludedSchoolsFromFile reads the exclude file. A missing or empty file yields an
// empty list.
func GetExcludedSchoolsFromFile(path string) (*ExcludedSchools, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ExcludedSchools{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedSchools{}, nil
	}

	var excluded ExcludedSchools
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose ID is not present yet.
func (e *ExcludedSchools) Append(s *ExcludedSchools) {
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedSchools) SchoolIDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, school := range e.Items {
		ids = append(ids, school.ID)
	}
	return ids
}

func (e *ExcludedSchools) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
