// Package similarity scores how alike two free-text job names are.
package similarity

import (
	"math"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/unicode/norm"
)

const (
	bigramWeight = 0.65
	tokenWeight  = 0.35
)

var streetTypes = map[string]string{
	"st":   "street",
	"str":  "street",
	"ave":  "avenue",
	"av":   "avenue",
	"rd":   "road",
	"dr":   "drive",
	"ln":   "lane",
	"blvd": "boulevard",
	"ct":   "court",
	"hwy":  "highway",
	"pl":   "place",
	"cir":  "circle",
	"pkwy": "parkway",
	"ter":  "terrace",
	"mt":   "mount",
}

var defaultSuffixes = []string{"job", "project", "proj"}

// bigramDice is Sørensen–Dice over character bigrams, counted as a multiset.
var bigramDice = metrics.NewSorensenDice()

// Scorer holds the suffix tokens dropped from the end of a name before
// comparison (for example branch codes such as "san" or "ocw").
type Scorer struct {
	suffixes map[string]struct{}
}

func NewScorer(extraSuffixes ...string) *Scorer {
	s := &Scorer{suffixes: make(map[string]struct{}, len(defaultSuffixes)+len(extraSuffixes))}
	for _, sfx := range defaultSuffixes {
		s.suffixes[sfx] = struct{}{}
	}
	for _, sfx := range extraSuffixes {
		sfx = strings.ToLower(strings.TrimSpace(sfx))
		if sfx != "" {
			s.suffixes[sfx] = struct{}{}
		}
	}
	return s
}

var defaultScorer = NewScorer()

// Score uses the default scorer.
func Score(a, b string) float64 {
	return defaultScorer.Score(a, b)
}

// Normalize uses the default scorer.
func Normalize(s string) string {
	return defaultScorer.Normalize(s)
}

// Score returns a value in [0,1]. It is symmetric and names that are equal,
// as typed or after normalization, score exactly 1.
func (s *Scorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	na, nb := s.Normalize(a), s.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	score := bigramWeight*strutil.Similarity(na, nb, bigramDice) +
		tokenWeight*tokenDice(strings.Fields(na), strings.Fields(nb))
	return math.Max(0, math.Min(1, score))
}

// Normalize lowercases, strips diacritics and punctuation, expands street
// abbreviations and drops trailing suffix tokens.
func (s *Scorer) Normalize(input string) string {
	decomposed := norm.NFD.String(strings.ToLower(input))

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for i, tok := range tokens {
		if full, ok := streetTypes[tok]; ok {
			tokens[i] = full
		}
	}

	end := len(tokens)
	for end > 1 {
		if _, ok := s.suffixes[tokens[end-1]]; !ok {
			break
		}
		end--
	}

	return strings.Join(tokens[:end], " ")
}

func tokenDice(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	return float64(2*inter) / float64(len(setA)+len(setB))
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
