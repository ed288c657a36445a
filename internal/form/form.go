// Package form collects the inputs for a website generation request.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ontree-co/sitegen/internal/website"
)

// Field names accepted by UpdateField. They match the request's JSON keys.
const (
	FieldWebsiteType    = "website_type"
	FieldBusinessName   = "business_name"
	FieldDescription    = "description"
	FieldTargetAudience = "target_audience"
	FieldColorScheme    = "color_scheme"
)

var (
	ErrUnknownField   = errors.New("unknown form field")
	ErrUnknownFeature = errors.New("feature is not in the catalog")
	ErrBlankPage      = errors.New("page name is blank")
	ErrDuplicatePage  = errors.New("page already exists")
	ErrHomePinned     = errors.New("the Home page cannot be removed")
)

// ValidationError reports the first required field that is missing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Form is the editable state behind a generation request. It is not safe for
// concurrent use.
type Form struct {
	websiteType    string
	businessName   string
	description    string
	targetAudience string
	colorScheme    string
	features       []string
	pages          []string
}

// New returns a form with the default pages and no features.
func New() *Form {
	return &Form{
		features: []string{},
		pages:    append([]string(nil), website.DefaultPages...),
	}
}

// UpdateField sets one text field. There is no cross-field validation here.
func (f *Form) UpdateField(field, value string) error {
	switch field {
	case FieldWebsiteType:
		f.websiteType = value
	case FieldBusinessName:
		f.businessName = value
	case FieldDescription:
		f.description = value
	case FieldTargetAudience:
		f.targetAudience = value
	case FieldColorScheme:
		// The catch-all palette means "let the generator choose".
		if value == website.DefaultColorScheme {
			value = ""
		}
		f.colorScheme = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// AddFeature selects a catalog feature. Selecting it again is a no-op.
func (f *Form) AddFeature(feature string) error {
	if !website.IsFeature(feature) {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	if indexOf(f.features, feature) >= 0 {
		return nil
	}
	f.features = append(f.features, feature)
	return nil
}

// RemoveFeature deselects feature if it is selected.
func (f *Form) RemoveFeature(feature string) {
	f.features = without(f.features, feature)
}

// HasFeature reports whether feature is selected.
func (f *Form) HasFeature(feature string) bool {
	return indexOf(f.features, feature) >= 0
}

// AddPage appends a page after trimming surrounding whitespace.
func (f *Form) AddPage(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankPage
	}
	if indexOf(f.pages, name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicatePage, name)
	}
	f.pages = append(f.pages, name)
	return nil
}

// RemovePage removes a page. Home is always kept.
func (f *Form) RemovePage(name string) error {
	if name == website.HomePage {
		return ErrHomePinned
	}
	f.pages = without(f.pages, name)
	return nil
}

// Features returns a copy of the selected features in selection order.
func (f *Form) Features() []string {
	return append([]string{}, f.features...)
}

// Pages returns a copy of the pages in order.
func (f *Form) Pages() []string {
	return append([]string{}, f.pages...)
}

// Validate checks the required fields in display order and returns the
// first failure.
func (f *Form) Validate() error {
	switch {
	case strings.TrimSpace(f.businessName) == "":
		return &ValidationError{Field: FieldBusinessName, Message: "Business name is required"}
	case strings.TrimSpace(f.websiteType) == "":
		return &ValidationError{Field: FieldWebsiteType, Message: "Please select a website type"}
	case strings.TrimSpace(f.description) == "":
		return &ValidationError{Field: FieldDescription, Message: "Description is required"}
	}
	return nil
}

// Request snapshots the form into a request body. Slices are copied so the
// form can keep changing afterwards.
func (f *Form) Request() website.Request {
	return website.Request{
		WebsiteType:    f.websiteType,
		BusinessName:   f.businessName,
		Description:    f.description,
		TargetAudience: f.targetAudience,
		ColorScheme:    f.colorScheme,
		Features:       f.Features(),
		Pages:          f.Pages(),
	}
}

func indexOf(list []string, item string) int {
	for i, v := range list {
		if v == item {
			return i
		}
	}
	return -1
}

func without(list []string, item string) []string {
	out := list[:0]
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}
