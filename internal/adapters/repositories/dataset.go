package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"nicu-finder/internal/domain"
)

// FacilityRecord is one entry of the curated dataset file.
type FacilityRecord struct {
	Name      string   `json:"name"`
	State     string   `json:"state"`
	County    string   `json:"county,omitempty"`
	NICULevel string   `json:"nicuLevel,omitempty"`
	URL       string   `json:"url,omitempty"`
	Beds      *int     `json:"beds,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
}

type datasetFile struct {
	NICUs []FacilityRecord `json:"nicus"`
}

// ReadDataset parses the dataset file at path. Entries without a name are
// rejected; an unknown level string leaves the level unset.
func ReadDataset(path string) ([]FacilityRecord, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %q: %w", path, err)
	}

	var data datasetFile
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("read dataset: parse json: %w", err)
	}

	for i := range data.NICUs {
		r := &data.NICUs[i]
		r.Name = strings.TrimSpace(r.Name)
		r.State = strings.TrimSpace(r.State)
		if r.Name == "" {
			return nil, fmt.Errorf("read dataset: entry %d: name cannot be empty", i+1)
		}
	}

	return data.NICUs, nil
}

// Facility converts the record into the domain shape.
func (r FacilityRecord) Facility() domain.CuratedFacility {
	f := domain.CuratedFacility{
		Name:   r.Name,
		State:  r.State,
		County: r.County,
		Beds:   r.Beds,
		URL:    r.URL,
		Phone:  r.Phone,
	}
	if lvl, ok := domain.ParseNICULevel(r.NICULevel); ok {
		f.NICULevel = lvl.Ptr()
	}
	if r.Lat != nil && r.Lng != nil {
		f.Coordinates = &domain.Coordinates{Lat: *r.Lat, Lng: *r.Lng}
	}
	return f
}
