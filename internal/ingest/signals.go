package ingest

import "strings"

// announcementPhrases appear in listing entries that publish selection
// outcomes for a past call rather than advertise an open one.
var announcementPhrases = []string{
	"winners announced",
	"final results",
	"results announced",
	"list of selected",
	"selected candidates",
	"shortlisted candidates",
	"successful applicants",
	"scholarship recipients",
	"meet the scholars",
	"resultados finales",
	"lista de seleccionados",
	"ganadores",
	"becarios seleccionados",
}

// openEndedPhrases mean the call accepts applications without a fixed date.
var openEndedPhrases = []string{
	"rolling",
	"open until filled",
	"until filled",
	"ongoing",
	"no deadline",
	"year-round",
	"all year",
	"sin fecha límite",
	"convocatoria permanente",
	"todo el año",
}

func mentions(text string, phrases []string) bool {
	text = strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// isAnnouncement checks title and summary only; outcome pages often share
// URL patterns with the open call.
func isAnnouncement(it Item) bool {
	return mentions(it.Title, announcementPhrases) || mentions(it.Summary, announcementPhrases)
}

func isOpenEnded(deadlineText string) bool {
	return mentions(deadlineText, openEndedPhrases)
}
