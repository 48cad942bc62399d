package textnorm

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	tokenRe = regexp.MustCompile(`[a-z0-9][a-z0-9\-]{2,}`)
	urlRe   = regexp.MustCompile(`https?://\S+`)
	wwwRe   = regexp.MustCompile(`^www\.`)
)

var stopWords = toSet(strings.Fields(
	"the of a an and or for with your this that from into about over under " +
		"how why what where when who whose our we you they them me my their " +
		"his her its is to in on at by as it are was were be been being do " +
		"did done have has had use using used can should would could will " +
		"might may not no yes just really very more most less least new " +
		"latest best worst big small help need"))

// CookingTokens and DrinkTokens are topic hint dictionaries used by the
// evaluator's topical-fit check.
var (
	CookingTokens = toSet([]string{
		"recipe", "recipes", "cook", "cooking", "bake", "baking", "saute",
		"simmer", "fry", "airfry", "air-fry", "oven", "preheat",
		"ingredients", "tbsp", "tsp", "grams", "ml", "marinate", "roast",
		"stir-fry", "knife", "pan", "skillet", "saucepan",
	})
	DrinkTokens = toSet([]string{
		"drink", "drinks", "drinking", "alcohol", "beer", "wine", "whiskey",
		"bourbon", "vodka", "gin", "rum", "tequila", "mezcal", "cocktail",
		"martini", "negroni", "spritz", "lager", "ipa", "stout", "bar",
		"mixology", "shaker", "bitters", "vermouth", "liqueur",
	})
)

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Tokenize lowercases the text, removes URLs, and returns tokens of at
// least three characters with stop words filtered out.
func Tokenize(s string) []string {
	s = urlRe.ReplaceAllString(strings.ToLower(s), " ")
	var tokens []string
	for _, tok := range tokenRe.FindAllString(s, -1) {
		if !stopWords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// TopKeywords returns up to k tokens ranked by frequency. Ties keep
// first-seen order.
func TopKeywords(text string, k int) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range Tokenize(text) {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > k {
		order = order[:k]
	}
	return order
}

// Jaccard computes token-set overlap: |A∩B| / |A∪B|. An empty union
// yields 0.
func Jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// HitRate is the fraction of tokens present in the dictionary.
func HitRate(tokens []string, dict map[string]bool) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if dict[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// Domain extracts the lowercase hostname of a URL without any leading
// www. prefix. Returns "" for unparseable input.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return wwwRe.ReplaceAllString(strings.ToLower(u.Hostname()), "")
}
