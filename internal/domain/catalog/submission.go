package catalog

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/remap/remap/internal/platform/tabular"
)

var (
	shortNameRe = regexp.MustCompile(`^[a-zA-Z0-9\s_-]{1,30}$`)
	doiRe       = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)
	orcidRe     = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("shortname", func(fl validator.FieldLevel) bool {
		return shortNameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("doi", func(fl validator.FieldLevel) bool {
		return doiRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("orcid", func(fl validator.FieldLevel) bool {
		return orcidRe.MatchString(fl.Field().String())
	})
	return v
}

// Program identifies the funding program a dataset is submitted under.
type Program struct {
	Name             string `json:"program_name" validate:"required"`
	ShortName        string `json:"program_short_name" validate:"required,shortname"`
	InstitutionName  string `json:"institution_name"`
	ShortDescription string `json:"program_short_description" validate:"required"`
	FullDescription  string `json:"program_full_description"`
	ExternalURL      string `json:"program_external_url" validate:"omitempty,url"`
}

// Validate checks the form-level constraints.
func (p Program) Validate() error {
	return validate.Struct(p)
}

// Record maps the program onto its schema property names.
func (p Program) Record() tabular.Record {
	return tabular.Record{
		"program_name":              p.Name,
		"program_short_name":        p.ShortName,
		"institution_name":          p.InstitutionName,
		"program_short_description": p.ShortDescription,
		"program_full_description":  p.FullDescription,
		"program_external_url":      p.ExternalURL,
	}
}

// Dataset describes the submitted collection itself.
type Dataset struct {
	LongName             string `json:"dataset_long_name" validate:"required"`
	ShortName            string `json:"dataset_short_name" validate:"required,shortname"`
	Description          string `json:"dataset_description"`
	Abstract             string `json:"dataset_abstract"`
	NumberOfParticipants int    `json:"number_of_participants" validate:"min=0"`
	DeIdentified         string `json:"data_has_been_de-identified" validate:"omitempty,oneof=Yes No"`
	AdultOrChildhood     string `json:"adult_or_childhood_study" validate:"omitempty,oneof=Adult Childhood Both"`
}

// Validate checks the form-level constraints.
func (d Dataset) Validate() error {
	return validate.Struct(d)
}

// Record maps the dataset onto its schema property names.
func (d Dataset) Record() tabular.Record {
	participants := ""
	if d.NumberOfParticipants > 0 {
		participants = strconv.Itoa(d.NumberOfParticipants)
	}
	return tabular.Record{
		"dataset_long_name":           d.LongName,
		"dataset_short_name":          d.ShortName,
		"dataset_description":         d.Description,
		"dataset_abstract":            d.Abstract,
		"number_of_participants":      participants,
		"data_has_been_de-identified": d.DeIdentified,
		"adult_or_childhood_study":    d.AdultOrChildhood,
	}
}

// Investigator is one contributing investigator. The ORCID is checked
// for shape only; resolving it against the registry is out of scope.
type Investigator struct {
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
	ORCID            string `json:"orcid" validate:"omitempty,orcid"`
	OrganizationName string `json:"organization_name"`
}

// Validate checks the form-level constraints.
func (i Investigator) Validate() error {
	return validate.Struct(i)
}

// Record maps the investigator onto its schema property names.
func (i Investigator) Record() tabular.Record {
	return tabular.Record{
		"first_name":        i.FirstName,
		"last_name":         i.LastName,
		"email":             i.Email,
		"orcid":             i.ORCID,
		"organization_name": i.OrganizationName,
	}
}

// RelatedWork is a publication associated with the dataset.
type RelatedWork struct {
	DOI              string `json:"DOI" validate:"omitempty,doi"`
	PublicationTitle string `json:"publication_title" validate:"required"`
	Authorship       string `json:"authorship"`
	PublicationType  string `json:"publication_type" validate:"omitempty,oneof='Journal Article' 'Conference Paper' 'Technical Report' 'Preprint' 'Other'"`
}

// Validate checks the form-level constraints.
func (w RelatedWork) Validate() error {
	return validate.Struct(w)
}

// Record maps the related work onto its schema property names.
func (w RelatedWork) Record() tabular.Record {
	return tabular.Record{
		"DOI":               w.DOI,
		"publication_title": w.PublicationTitle,
		"authorship":        w.Authorship,
		"publication_type":  w.PublicationType,
	}
}

// Submission bundles everything collected once per submission.
type Submission struct {
	Program       Program        `json:"program"`
	Dataset       Dataset        `json:"dataset"`
	Investigators []Investigator `json:"investigators"`
	RelatedWorks  []RelatedWork  `json:"related_works"`
}

// Validate checks every part of the bundle and names the part that
// failed.
func (s Submission) Validate() error {
	if err := s.Program.Validate(); err != nil {
		return fmt.Errorf("program: %w", err)
	}
	if err := s.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	for idx, inv := range s.Investigators {
		if err := inv.Validate(); err != nil {
			return fmt.Errorf("investigator %d: %w", idx+1, err)
		}
	}
	for idx, w := range s.RelatedWorks {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("related work %d: %w", idx+1, err)
		}
	}
	return nil
}

// Records lays the bundle out per entity for the metadata writer.
// Entities with nothing collected are omitted.
func (s Submission) Records() map[string][]tabular.Record {
	out := map[string][]tabular.Record{
		"Program": {s.Program.Record()},
		"Dataset": {s.Dataset.Record()},
	}
	for _, inv := range s.Investigators {
		out["Investigator"] = append(out["Investigator"], inv.Record())
	}
	for _, w := range s.RelatedWorks {
		out["Related_Work"] = append(out["Related_Work"], w.Record())
	}
	return out
}
