package models

import "strings"

// AllBranches is the filter sentinel meaning "no branch restriction". It is
// never stored on a record.
const AllBranches = "All Branches"

// Branches lists every station in the chain.
var Branches = []string{
	"Asankragua", "Ayiem", "Assin Fosu", "Atta ne Atta", "Atebubu",
	"Bepong", "Bongo", "Camp 15", "Dadieso", "Damango",
	"Dormaa", "Dunkwa", "Feyiase", "Mamaso", "Medie",
	"Nkruma Nkwanta", "Obuasi", "Oseikrom", "Suma Ahenkro",
	"Tarkwa", "Tema", "Tepa", "Tinga", "Tumu", "Tutuka", "Wa",
}

// LookupBranch resolves a user-typed branch name case-insensitively.
func LookupBranch(name string) (string, bool) {
	name = strings.Join(strings.Fields(name), " ")
	for _, b := range Branches {
		if strings.EqualFold(b, name) {
			return b, true
		}
	}
	return "", false
}
