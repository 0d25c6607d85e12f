package models

import (
	"encoding/json"
	"fmt"
)

// Details holds the type-specific attributes of an opportunity. There is
// exactly one implementation per OpportunityType.
type Details interface {
	Kind() OpportunityType
	isDetails()
}

type ScholarshipDetails struct {
	FundingType   string   `json:"funding_type" validate:"omitempty,oneof=fully_funded partially_funded self_funded"`
	DegreeLevels  []string `json:"degree_levels"`
	Amount        string   `json:"amount"`
	FieldsOfStudy []string `json:"fields_of_study"`
}

type InternshipDetails struct {
	Stipend  string `json:"stipend"`
	Duration string `json:"duration"`
	IsPaid   bool   `json:"is_paid"`
	IsRemote bool   `json:"is_remote"`
}

type FellowshipDetails struct {
	FundingType string `json:"funding_type" validate:"omitempty,oneof=fully_funded partially_funded self_funded"`
	Stipend     string `json:"stipend"`
	Duration    string `json:"duration"`
}

type CompetitionDetails struct {
	Prize        string `json:"prize"`
	TeamSize     string `json:"team_size"`
	EligibleAges string `json:"eligible_ages"`
}

type ConferenceDetails struct {
	FundingType string `json:"funding_type" validate:"omitempty,oneof=fully_funded partially_funded self_funded"`
	EventDates  string `json:"event_dates"`
	Venue       string `json:"venue"`
}

type WorkshopDetails struct {
	TrainingType string `json:"training_type" validate:"omitempty,oneof=online in_person hybrid"`
	EventDates   string `json:"event_dates"`
	Fee          string `json:"fee"`
}

type ExchangeProgramDetails struct {
	FundingType     string `json:"funding_type" validate:"omitempty,oneof=fully_funded partially_funded self_funded"`
	HostInstitution string `json:"host_institution"`
	Duration        string `json:"duration"`
}

type JobDetails struct {
	Salary         string `json:"salary"`
	EmploymentType string `json:"employment_type" validate:"omitempty,oneof=full_time part_time contract"`
	IsRemote       bool   `json:"is_remote"`
}

type OnlineCourseDetails struct {
	Provider       string `json:"provider"`
	Pacing         string `json:"pacing" validate:"omitempty,oneof=self_paced instructor_led"`
	HasCertificate bool   `json:"has_certificate"`
	IsFree         bool   `json:"is_free"`
}

func (ScholarshipDetails) Kind() OpportunityType     { return TypeScholarship }
func (InternshipDetails) Kind() OpportunityType      { return TypeInternship }
func (FellowshipDetails) Kind() OpportunityType      { return TypeFellowship }
func (CompetitionDetails) Kind() OpportunityType     { return TypeCompetition }
func (ConferenceDetails) Kind() OpportunityType      { return TypeConference }
func (WorkshopDetails) Kind() OpportunityType        { return TypeWorkshop }
func (ExchangeProgramDetails) Kind() OpportunityType { return TypeExchangeProgram }
func (JobDetails) Kind() OpportunityType             { return TypeJob }
func (OnlineCourseDetails) Kind() OpportunityType    { return TypeOnlineCourse }

func (ScholarshipDetails) isDetails()     {}
func (InternshipDetails) isDetails()      {}
func (FellowshipDetails) isDetails()      {}
func (CompetitionDetails) isDetails()     {}
func (ConferenceDetails) isDetails()      {}
func (WorkshopDetails) isDetails()        {}
func (ExchangeProgramDetails) isDetails() {}
func (JobDetails) isDetails()             {}
func (OnlineCourseDetails) isDetails()    {}

// EmptyDetails returns the zero variant for t.
func EmptyDetails(t OpportunityType) (Details, error) {
	switch t {
	case TypeScholarship:
		return ScholarshipDetails{}, nil
	case TypeInternship:
		return InternshipDetails{}, nil
	case TypeFellowship:
		return FellowshipDetails{}, nil
	case TypeCompetition:
		return CompetitionDetails{}, nil
	case TypeConference:
		return ConferenceDetails{}, nil
	case TypeWorkshop:
		return WorkshopDetails{}, nil
	case TypeExchangeProgram:
		return ExchangeProgramDetails{}, nil
	case TypeJob:
		return JobDetails{}, nil
	case TypeOnlineCourse:
		return OnlineCourseDetails{}, nil
	}
	return nil, fmt.Errorf("unknown opportunity type %q", t)
}

// UnmarshalDetails decodes raw into the variant that belongs to t. Empty or
// null input yields the zero variant.
func UnmarshalDetails(t OpportunityType, raw []byte) (Details, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return EmptyDetails(t)
	}

	var (
		d   Details
		err error
	)
	switch t {
	case TypeScholarship:
		var v ScholarshipDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TypeInternship:
		var v InternshipDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TypeFellowship:
		var v FellowshipDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TypeCompetition:
		var v CompetitionDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TypeConference:
		var v ConferenceDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TypeWorkshop:
		var v WorkshopDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TypeExchangeProgram:
		var v ExchangeProgramDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TypeJob:
		var v JobDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TypeOnlineCourse:
		var v OnlineCourseDetails
		err = json.Unmarshal(raw, &v)
		d = v
	default:
		return nil, fmt.Errorf("unknown opportunity type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s details: %w", t, err)
	}
	return d, nil
}

// MarshalDetails encodes d, checking that it belongs to t.
func MarshalDetails(t OpportunityType, d Details) ([]byte, error) {
	if d == nil {
		empty, err := EmptyDetails(t)
		if err != nil {
			return nil, err
		}
		d = empty
	}
	if d.Kind() != t {
		return nil, fmt.Errorf("details of kind %s do not match opportunity type %s", d.Kind(), t)
	}
	return json.Marshal(d)
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func detailFacet(d Details, name string) string {
	switch v := d.(type) {
	case ScholarshipDetails:
		if name == "funding_type" {
			return v.FundingType
		}
	case InternshipDetails:
		switch name {
		case "paid":
			return yesNo(v.IsPaid, "paid", "unpaid")
		case "remote":
			return yesNo(v.IsRemote, "remote", "onsite")
		}
	case FellowshipDetails:
		if name == "funding_type" {
			return v.FundingType
		}
	case CompetitionDetails:
	case ConferenceDetails:
		if name == "funding_type" {
			return v.FundingType
		}
	case WorkshopDetails:
		if name == "training_type" {
			return v.TrainingType
		}
	case ExchangeProgramDetails:
		if name == "funding_type" {
			return v.FundingType
		}
	case JobDetails:
		switch name {
		case "employment_type":
			return v.EmploymentType
		case "remote":
			return yesNo(v.IsRemote, "remote", "onsite")
		}
	case OnlineCourseDetails:
		switch name {
		case "provider":
			return v.Provider
		case "pacing":
			return v.Pacing
		case "certificate":
			return yesNo(v.HasCertificate, "yes", "no")
		case "price":
			return yesNo(v.IsFree, "free", "paid")
		}
	}
	return ""
}
