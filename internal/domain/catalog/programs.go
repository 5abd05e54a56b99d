// Package catalog holds the once-per-submission metadata: the program
// registry, the dataset/investigator/related-work forms, and the
// conflict check between collected metadata and mapped source columns.
package catalog

import (
	"fmt"
	"sync"
)

// Registry is the in-memory program catalog, seeded with the built-in
// programs and extendable with custom ones. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	programs []Program
}

// NewRegistry returns a registry seeded with the built-in programs.
func NewRegistry() *Registry {
	return &Registry{programs: DefaultPrograms()}
}

// List returns every registered program in registration order.
func (r *Registry) List() []Program {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Program(nil), r.programs...)
}

// Get looks a program up by its short name.
func (r *Registry) Get(shortName string) (Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.programs {
		if p.ShortName == shortName {
			return p, true
		}
	}
	return Program{}, false
}

// Add registers a custom program after validating it. Short names are
// unique across the registry.
func (r *Registry) Add(p Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.programs {
		if existing.ShortName == p.ShortName {
			return fmt.Errorf("program %q already registered", p.ShortName)
		}
	}
	r.programs = append(r.programs, p)
	return nil
}

// DefaultPrograms returns the built-in program catalog. Community is
// first: it is the default for submissions outside the named programs.
func DefaultPrograms() []Program {
	return []Program{
		{
			Name:             "Community",
			ShortName:        "Community",
			ShortDescription: "Community-contributed imaging collections",
			FullDescription:  "Imaging collections contributed by individual research groups and institutions outside the named national programs, curated and published by the archive.",
			ExternalURL:      "https://www.cancerimagingarchive.net/",
		},
		{
			Name:             "The Cancer Genome Atlas",
			ShortName:        "TCGA",
			InstitutionName:  "National Cancer Institute",
			ShortDescription: "A landmark cancer genomics program",
			FullDescription:  "The Cancer Genome Atlas molecularly characterized over 20,000 primary cancer and matched normal samples spanning 33 cancer types; its imaging counterpart collections pair radiology and pathology images with the genomic data.",
			ExternalURL:      "https://www.cancer.gov/tcga",
		},
		{
			Name:             "Clinical Proteomic Tumor Analysis Consortium",
			ShortName:        "CPTAC",
			InstitutionName:  "National Cancer Institute",
			ShortDescription: "Proteogenomic characterization of human cancers",
			FullDescription:  "The Clinical Proteomic Tumor Analysis Consortium analyzes cancer biospecimens by mass spectrometry, connecting proteomic and genomic alterations; companion radiology collections are published alongside.",
			ExternalURL:      "https://proteomics.cancer.gov/programs/cptac",
		},
		{
			Name:             "Applied Proteogenomics OrganizationaL Learning and Outcomes",
			ShortName:        "APOLLO",
			InstitutionName:  "National Cancer Institute",
			ShortDescription: "Proteogenomics for active-duty military and veteran cancer care",
			FullDescription:  "The APOLLO network brings proteogenomic profiling into clinical care for active-duty military members and veterans with cancer, contributing paired imaging and molecular datasets.",
			ExternalURL:      "https://proteomics.cancer.gov/programs/apollo-network",
		},
		{
			Name:             "Cancer Imaging Biobank",
			ShortName:        "Biobank",
			ShortDescription: "Biobanked imaging with linked clinical annotations",
			FullDescription:  "Imaging collections assembled from biobanked specimens and their linked clinical annotations, standardized for secondary research use.",
			ExternalURL:      "https://www.cancerimagingarchive.net/",
		},
	}
}
