package listfilter

import (
	"time"

	"github.com/david/scholarhub/internal/models"
)

// DefaultDelay is the keystroke debounce used by the list pages.
const DefaultDelay = 300 * time.Millisecond

func oppFacet(name string, m Match, suggest bool) Facet[models.Opportunity] {
	return Facet[models.Opportunity]{
		Name:    name,
		Match:   m,
		Suggest: suggest,
		Values:  One(func(o models.Opportunity) string { return o.Facet(name) }),
	}
}

func searchOpportunity(o models.Opportunity) []string {
	return []string{o.Title, o.Organization}
}

var (
	country      = oppFacet("country", Contains, true)
	location     = oppFacet("location", Contains, false)
	fundingType  = oppFacet("funding_type", Exact, false)
	remote       = oppFacet("remote", Exact, false)
	oppType      = oppFacet("type", Exact, false)
	fundedPages  = []Facet[models.Opportunity]{country, fundingType}
	pageRegistry = map[models.OpportunityType][]Facet[models.Opportunity]{
		models.TypeScholarship:     fundedPages,
		models.TypeFellowship:      fundedPages,
		models.TypeConference:      fundedPages,
		models.TypeExchangeProgram: fundedPages,
		models.TypeInternship:      {country, location, oppFacet("paid", Exact, false), remote},
		models.TypeCompetition:     {country},
		models.TypeWorkshop:        {country, oppFacet("training_type", Exact, false)},
		models.TypeJob:             {country, location, oppFacet("employment_type", Exact, false), remote},
		models.TypeOnlineCourse: {
			oppFacet("provider", Contains, true),
			oppFacet("pacing", Exact, false),
			oppFacet("certificate", Exact, false),
			oppFacet("price", Exact, false),
		},
	}
)

// OpportunityPage returns the filter composition of the list page for t. The
// empty type is the cross-type listing.
func OpportunityPage(t models.OpportunityType) Spec[models.Opportunity] {
	facets, ok := pageRegistry[t]
	if !ok {
		facets = []Facet[models.Opportunity]{country, oppType}
	}
	return Spec[models.Opportunity]{Search: searchOpportunity, Facets: facets}
}

var PostPage = Spec[models.Post]{
	Search: func(p models.Post) []string { return []string{p.Title, p.Excerpt, p.AuthorName} },
	Facets: []Facet[models.Post]{
		{Name: "tag", Match: Exact, Suggest: true, Values: func(p models.Post) []string { return p.Tags }},
	},
}

var VisaGuidePage = Spec[models.VisaGuide]{
	Search: func(g models.VisaGuide) []string { return []string{g.Country, g.Overview} },
	Facets: []Facet[models.VisaGuide]{
		{Name: "country", Match: Contains, Suggest: true, Values: One(func(g models.VisaGuide) string { return g.Country })},
	},
}
