package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OpportunityType string

const (
	TypeScholarship     OpportunityType = "scholarship"
	TypeInternship      OpportunityType = "internship"
	TypeFellowship      OpportunityType = "fellowship"
	TypeCompetition     OpportunityType = "competition"
	TypeConference      OpportunityType = "conference"
	TypeWorkshop        OpportunityType = "workshop"
	TypeExchangeProgram OpportunityType = "exchange_program"
	TypeJob             OpportunityType = "job"
	TypeOnlineCourse    OpportunityType = "online_course"
)

// OpportunityTypes lists every type in display order.
var OpportunityTypes = []OpportunityType{
	TypeScholarship,
	TypeInternship,
	TypeFellowship,
	TypeCompetition,
	TypeConference,
	TypeWorkshop,
	TypeExchangeProgram,
	TypeJob,
	TypeOnlineCourse,
}

func ParseOpportunityType(s string) (OpportunityType, error) {
	for _, t := range OpportunityTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown opportunity type %q", s)
}

type Opportunity struct {
	ID             uuid.UUID       `json:"id"`
	Type           OpportunityType `json:"type"`
	Title          string          `json:"title"`
	Organization   string          `json:"organization"`
	Country        string          `json:"country"`
	Location       string          `json:"location"`
	Deadline       *time.Time      `json:"deadline"`
	IsActive       bool            `json:"is_active"`
	IsFeatured     bool            `json:"is_featured"`
	Details        Details         `json:"details"`
	Description    string          `json:"description"`
	ApplicationURL string          `json:"application_url"`
	ImageURL       string          `json:"image_url"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DeadlineDate satisfies deadline.Deadliner.
func (o Opportunity) DeadlineDate() *time.Time {
	return o.Deadline
}

func (o *Opportunity) UnmarshalJSON(data []byte) error {
	type alias Opportunity
	aux := struct {
		*alias
		Details json.RawMessage `json:"details"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	details, err := UnmarshalDetails(o.Type, aux.Details)
	if err != nil {
		return err
	}
	o.Details = details
	return nil
}

// Facet returns the value of a named filter dimension, or "" when the
// opportunity's type has no such field.
func (o Opportunity) Facet(name string) string {
	switch name {
	case "country":
		return o.Country
	case "location":
		return o.Location
	case "organization":
		return o.Organization
	case "type":
		return string(o.Type)
	}
	if o.Details == nil {
		return ""
	}
	return detailFacet(o.Details, name)
}
