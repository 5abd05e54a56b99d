package catalog

import (
	"strings"
	"testing"
)

func validSubmission() Submission {
	return Submission{
		Program: Program{
			Name:             "University Lung Imaging Consortium",
			ShortName:        "ULIC",
			InstitutionName:  "Example University",
			ShortDescription: "Multi-site lung CT collections",
			ExternalURL:      "https://imaging.example.edu",
		},
		Dataset: Dataset{
			LongName:             "Lung CT Screening Cohort 2024",
			ShortName:            "LUNG-CT-2024",
			Description:          "Low-dose CT screening series",
			NumberOfParticipants: 120,
			DeIdentified:         "Yes",
			AdultOrChildhood:     "Adult",
		},
		Investigators: []Investigator{
			{FirstName: "Dana", LastName: "Ito", Email: "dito@example.edu", ORCID: "0000-0002-1825-0097", OrganizationName: "Example University"},
		},
		RelatedWorks: []RelatedWork{
			{DOI: "10.1000/xyz123", PublicationTitle: "Screening outcomes in the 2024 cohort", PublicationType: "Journal Article"},
		},
	}
}

func TestSubmissionValidate(t *testing.T) {
	s := validSubmission()
	if err := s.Validate(); err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}
}

func TestSubmissionValidateNamesFailingPart(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Submission)
		wantSub string
	}{
		{
			"program short name",
			func(s *Submission) { s.Program.ShortName = "way too long for a short name field" },
			"program:",
		},
		{
			"dataset long name",
			func(s *Submission) { s.Dataset.LongName = "" },
			"dataset:",
		},
		{
			"second investigator email",
			func(s *Submission) {
				s.Investigators = append(s.Investigators, Investigator{FirstName: "Lee", LastName: "Park", Email: "not-an-email"})
			},
			"investigator 2:",
		},
		{
			"related work title",
			func(s *Submission) { s.RelatedWorks[0].PublicationTitle = "" },
			"related work 1:",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := validSubmission()
			tc.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not name the failing part %q", err, tc.wantSub)
			}
		})
	}
}

func TestDatasetValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Dataset)
		ok     bool
	}{
		{"valid", func(d *Dataset) {}, true},
		{"optional enums empty", func(d *Dataset) { d.DeIdentified = ""; d.AdultOrChildhood = "" }, true},
		{"bad de-identified token", func(d *Dataset) { d.DeIdentified = "maybe" }, false},
		{"bad study population", func(d *Dataset) { d.AdultOrChildhood = "Teen" }, false},
		{"negative participants", func(d *Dataset) { d.NumberOfParticipants = -1 }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validSubmission().Dataset
			tc.mutate(&d)
			err := d.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestInvestigatorValidate(t *testing.T) {
	tests := []struct {
		name string
		inv  Investigator
		ok   bool
	}{
		{"names only", Investigator{FirstName: "Lee", LastName: "Park"}, true},
		{"orcid", Investigator{FirstName: "Lee", LastName: "Park", ORCID: "0000-0002-1825-0097"}, true},
		{"orcid with X checksum", Investigator{FirstName: "Lee", LastName: "Park", ORCID: "0000-0002-1694-233X"}, true},
		{"truncated orcid", Investigator{FirstName: "Lee", LastName: "Park", ORCID: "0000-0002-1825"}, false},
		{"orcid as url", Investigator{FirstName: "Lee", LastName: "Park", ORCID: "https://orcid.org/0000-0002-1825-0097"}, false},
		{"missing last name", Investigator{FirstName: "Lee"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.inv.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRelatedWorkValidate(t *testing.T) {
	tests := []struct {
		name string
		work RelatedWork
		ok   bool
	}{
		{"doi and type", RelatedWork{DOI: "10.7937/K9/TCIA.2015.LO9QL9SX", PublicationTitle: "T", PublicationType: "Preprint"}, true},
		{"title only", RelatedWork{PublicationTitle: "T"}, true},
		{"malformed doi", RelatedWork{DOI: "doi:10.1000/x", PublicationTitle: "T"}, false},
		{"doi missing suffix", RelatedWork{DOI: "10.1000/", PublicationTitle: "T"}, false},
		{"unknown publication type", RelatedWork{PublicationTitle: "T", PublicationType: "Blog Post"}, false},
		{"multi word type", RelatedWork{PublicationTitle: "T", PublicationType: "Conference Paper"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.work.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSubmissionRecords(t *testing.T) {
	s := validSubmission()
	records := s.Records()

	prog, ok := records["Program"]
	if !ok || len(prog) != 1 {
		t.Fatalf("Program records = %v", prog)
	}
	if prog[0]["program_short_name"] != "ULIC" {
		t.Errorf("program_short_name = %q", prog[0]["program_short_name"])
	}

	ds := records["Dataset"]
	if len(ds) != 1 {
		t.Fatalf("Dataset records = %v", ds)
	}
	if ds[0]["number_of_participants"] != "120" {
		t.Errorf("number_of_participants = %q", ds[0]["number_of_participants"])
	}
	if ds[0]["data_has_been_de-identified"] != "Yes" {
		t.Errorf("de-identified flag = %q", ds[0]["data_has_been_de-identified"])
	}

	if got := records["Investigator"]; len(got) != 1 || got[0]["last_name"] != "Ito" {
		t.Errorf("Investigator records = %v", got)
	} else if got[0]["orcid"] != "0000-0002-1825-0097" {
		t.Errorf("orcid = %q", got[0]["orcid"])
	}
	if got := records["Related_Work"]; len(got) != 1 || got[0]["DOI"] != "10.1000/xyz123" {
		t.Errorf("Related_Work records = %v", got)
	}
}

func TestSubmissionRecordsOmitEmptySections(t *testing.T) {
	s := validSubmission()
	s.Investigators = nil
	s.RelatedWorks = nil
	records := s.Records()
	if _, ok := records["Investigator"]; ok {
		t.Error("Investigator present with nothing collected")
	}
	if _, ok := records["Related_Work"]; ok {
		t.Error("Related_Work present with nothing collected")
	}
	if len(records) != 2 {
		t.Errorf("got %d sections, want Program and Dataset only", len(records))
	}
}

func TestDatasetRecordOmitsZeroParticipants(t *testing.T) {
	d := Dataset{LongName: "L", ShortName: "S"}
	if got := d.Record()["number_of_participants"]; got != "" {
		t.Errorf("zero participants rendered as %q, want empty", got)
	}
}
