package sheet

import "strings"

// Canonical headers of the planning sheet.
const (
	ColProject  = "Project"
	ColOwner    = "Owner"
	ColStart    = "Start Date"
	ColEnd      = "End Date"
	ColStatus   = "Status"
	ColProgress = "Progress%"

	ColExpected = "Expected Progress%"
	ColDelay    = "Delay%"
)

// Contract is the six-column header contract, in sheet order.
var Contract = []string{ColProject, ColOwner, ColStart, ColEnd, ColStatus, ColProgress}

// Derived lists the columns written by the exporters and recomputed on load.
var Derived = []string{ColExpected, ColDelay}

// aliases maps normalized header text to a canonical header. The French
// names are those used in the existing planning workbooks.
var aliases = map[string]string{
	"project":                  ColProject,
	"projet":                   ColProject,
	"owner":                    ColOwner,
	"responsable":              ColOwner,
	"start date":               ColStart,
	"date début":               ColStart,
	"date debut":               ColStart,
	"end date":                 ColEnd,
	"date fin":                 ColEnd,
	"status":                   ColStatus,
	"état":                     ColStatus,
	"etat":                     ColStatus,
	"progress%":                ColProgress,
	"progress (%)":             ColProgress,
	"progression (%)":          ColProgress,
	"expected progress%":       ColExpected,
	"progression attendue (%)": ColExpected,
	"delay%":                   ColDelay,
	"retard (%)":               ColDelay,
}

// canonical returns the canonical header for h, or "" when h is not part of
// the contract or the derived columns.
func canonical(h string) string {
	return aliases[strings.ToLower(strings.TrimSpace(h))]
}

func isDerived(col string) bool {
	return col == ColExpected || col == ColDelay
}
