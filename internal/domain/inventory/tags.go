package inventory

import "github.com/gradienthealth/dicom/dicomtag"

// Header tags collected per series.
var (
	tagPatientID             = dicomtag.Tag{Group: 0x0010, Element: 0x0020}
	tagStudyInstanceUID      = dicomtag.Tag{Group: 0x0020, Element: 0x000D}
	tagStudyDate             = dicomtag.Tag{Group: 0x0008, Element: 0x0020}
	tagStudyDescription      = dicomtag.Tag{Group: 0x0008, Element: 0x1030}
	tagSeriesInstanceUID     = dicomtag.Tag{Group: 0x0020, Element: 0x000E}
	tagSeriesDescription     = dicomtag.Tag{Group: 0x0008, Element: 0x103E}
	tagManufacturer          = dicomtag.Tag{Group: 0x0008, Element: 0x0070}
	tagManufacturerModelName = dicomtag.Tag{Group: 0x0008, Element: 0x1090}
	tagModality              = dicomtag.Tag{Group: 0x0008, Element: 0x0060}
	tagBodyPartExamined      = dicomtag.Tag{Group: 0x0018, Element: 0x0015}
	tagSliceThickness        = dicomtag.Tag{Group: 0x0018, Element: 0x0050}
	tagPixelSpacing          = dicomtag.Tag{Group: 0x0028, Element: 0x0030}
)
