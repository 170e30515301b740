package services

import (
	"regexp"

	"renov-scraper/models"
)

const maxRenovationScore = 100

type renovationTerm struct {
	keyword string
	pattern *regexp.Regexp
	weight  int
}

// renovationLexicon is matched against folded text. Each term counts once,
// whatever the number of occurrences.
var renovationLexicon = []renovationTerm{
	{"à rénover", regexp.MustCompile(`\ba renover\b|\btout a renover\b|\bentierement a renover\b`), 25},
	{"rénovation", regexp.MustCompile(`\brenovations?\b`), 15},
	{"travaux", regexp.MustCompile(`\btravaux\b`), 15},
	{"à prévoir", regexp.MustCompile(`\ba prevoir\b`), 10},
	{"à rafraîchir", regexp.MustCompile(`\ba rafraichir\b|\brafraichissement\b`), 15},
	{"à restaurer", regexp.MustCompile(`\ba restaurer\b|\brestauration\b`), 20},
	{"à réhabiliter", regexp.MustCompile(`\ba rehabiliter\b|\brehabilitation\b`), 20},
	{"remise en état", regexp.MustCompile(`\bremise en etat\b|\bremettre en etat\b`), 15},
	{"à refaire", regexp.MustCompile(`\ba refaire\b|\ba reprendre\b`), 10},
	{"gros œuvre", regexp.MustCompile(`\bgros oeuvre\b`), 15},
	{"dans son jus", regexp.MustCompile(`\bdans son jus\b`), 20},
	{"en l'état", regexp.MustCompile(`\ben l'?etat\b`), 10},
	{"bricoleur", regexp.MustCompile(`\bbricoleurs?\b`), 15},
	{"potentiel", regexp.MustCompile(`\bpotentiel\b`), 10},
	{"ruine", regexp.MustCompile(`\bruines?\b`), 20},
	{"humidité", regexp.MustCompile(`\bhumidite\b`), 10},
	{"inhabité", regexp.MustCompile(`\binhabitee?\b`), 10},
	{"grange", regexp.MustCompile(`\bgranges?\b`), 10},
	{"corps de ferme", regexp.MustCompile(`\bcorps de ferme\b`), 10},
	{"succession", regexp.MustCompile(`\bsuccession\b`), 5},
	{"investisseur", regexp.MustCompile(`\binvestisseurs?\b`), 5},
}

// Score rates the renovation signal of a listing's free text. The result is
// bounded to [0,100], deterministic, and never decreases when another
// distinct term is matched.
func Score(title, description string) models.RenovationScore {
	text := Fold(title + " " + description)

	score := 0
	keywords := []string{}
	for _, term := range renovationLexicon {
		if term.pattern.MatchString(text) {
			score += term.weight
			keywords = append(keywords, term.keyword)
		}
	}
	if score > maxRenovationScore {
		score = maxRenovationScore
	}

	return models.RenovationScore{Score: score, Keywords: keywords}
}

type typeRule struct {
	propertyType models.PropertyType
	pattern      *regexp.Regexp
}

// typeRules never match a bare "ferme", which folds to the same text as the
// adjective "fermé" (closed).
var typeRules = []typeRule{
	{models.PropertyBuilding, regexp.MustCompile(`\bimmeubles?\b|\bbatiments?\b|\bensemble immobilier\b`)},
	{models.PropertyCommercial, regexp.MustCompile(`\blocal commercial\b|\blocaux\b|\bbureaux?\b|\bcommerces?\b|\bfonds de commerce\b|\bentrepots?\b|\bhangar\b`)},
	{models.PropertyApartment, regexp.MustCompile(`\bappartements?\b|\bappart\b|\bstudio\b|\bduplex\b|\btriplex\b|\bloft\b|\b[tf][1-7]\b`)},
	{models.PropertyHouse, regexp.MustCompile(`\bmaisons?\b|\bvillas?\b|\bpavillons?\b|\blongere\b|\bfermettes?\b|\bcorps de ferme\b|\bancienne ferme\b|\bferme (?:ancienne|renovee|a renover|a restaurer|de caractere|traditionnelle|equestre)\b|\bbastide\b|\bmas\b|\bchalet\b|\bchaumiere\b|\bmanoir\b|\bchateau\b`)},
	{models.PropertyLand, regexp.MustCompile(`\bterrains?\b|\bparcelles?\b`)},
}

// InferPropertyType guesses the property type from free text. The type whose
// first mention appears earliest wins, so "maison avec terrain" is a house.
func InferPropertyType(text string) models.PropertyType {
	folded := Fold(text)

	best := models.PropertyOther
	bestPos := -1
	for _, rule := range typeRules {
		loc := rule.pattern.FindStringIndex(folded)
		if loc == nil {
			continue
		}
		if bestPos == -1 || loc[0] < bestPos {
			best = rule.propertyType
			bestPos = loc[0]
		}
	}
	return best
}
