package form

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ontree-co/sitegen/internal/website"
)

// siteFile is the YAML description accepted by LoadFile.
type siteFile struct {
	WebsiteType    string   `yaml:"website_type"`
	BusinessName   string   `yaml:"business_name"`
	Description    string   `yaml:"description"`
	TargetAudience string   `yaml:"target_audience"`
	ColorScheme    string   `yaml:"color_scheme"`
	Features       []string `yaml:"features"`
	Pages          []string `yaml:"pages"`
	RemovePages    []string `yaml:"remove_pages"`
}

// LoadFile reads a YAML site description into a new form.
func LoadFile(path string) (*Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse builds a form from YAML. Every value goes through the same form
// operations an interactive user would trigger, so catalog and page rules
// still apply. A pages list replaces the default extra pages and Home stays
// first. remove_pages is applied last.
func Parse(data []byte) (*Form, error) {
	var sf siteFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse site file: %w", err)
	}

	f := New()
	fields := []struct {
		name  string
		value string
	}{
		{FieldWebsiteType, sf.WebsiteType},
		{FieldBusinessName, sf.BusinessName},
		{FieldDescription, sf.Description},
		{FieldTargetAudience, sf.TargetAudience},
		{FieldColorScheme, sf.ColorScheme},
	}
	for _, fld := range fields {
		if err := f.UpdateField(fld.name, fld.value); err != nil {
			return nil, err
		}
	}

	for _, feature := range sf.Features {
		if err := f.AddFeature(feature); err != nil {
			return nil, err
		}
	}

	if sf.Pages != nil {
		f.pages = []string{website.HomePage}
		for _, page := range sf.Pages {
			if strings.TrimSpace(page) == website.HomePage {
				continue
			}
			if err := f.AddPage(page); err != nil {
				return nil, err
			}
		}
	}

	for _, page := range sf.RemovePages {
		if err := f.RemovePage(page); err != nil {
			return nil, err
		}
	}
	return f, nil
}
