// Package designation generates the rotating human-readable pseudonyms
// assigned to source collections, e.g. "Dour Bicycle", together with the
// filesystem slug form used inside submission filenames ("dour_bicycle").
package designation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Generator yields fresh designations. Uniqueness against live sources is the
// caller's concern; the generator only promises unpredictable picks.
type Generator interface {
	Generate() (designation, slug string, err error)
}

type wordPair struct{}

// NewGenerator returns the default two-word generator backed by crypto/rand.
func NewGenerator() Generator {
	return wordPair{}
}

func (wordPair) Generate() (string, string, error) {
	adj, err := pick(adjectives)
	if err != nil {
		return "", "", err
	}
	noun, err := pick(nouns)
	if err != nil {
		return "", "", err
	}

	designation := fmt.Sprintf("%s %s", title(adj), title(noun))
	slug := fmt.Sprintf("%s_%s", adj, noun)
	return designation, slug, nil
}

func pick(words []string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("designation: entropy failure: %w", err)
	}
	return words[n.Int64()], nil
}

// Slugify converts a designation into its filesystem form, e.g.
// "Dour Bicycle" -> "dour_bicycle".
func Slugify(designation string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(designation)), " ", "_")
}

// Valid reports whether a caller-supplied designation fits the slug grammar:
// words made of letters, separated by spaces. Submission filenames embed the
// slug between dash-delimited fields, so any other character would make a
// filename ambiguous to decompose on a later rotation.
func Valid(designation string) bool {
	words := strings.Fields(designation)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
				return false
			}
		}
	}
	return true
}

func title(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

// Word lists are deliberately short on purpose-neutral vocabulary: the
// designation only needs to be memorable and collision-resistant among live
// sources, not globally unique.
var adjectives = []string{
	"abrupt", "acidic", "adored", "ancient", "antique", "ashen", "austere",
	"batty", "blissful", "brave", "brisk", "callous", "candid", "cheery",
	"chilly", "civil", "clever", "coarse", "crafty", "daring", "dour",
	"dreamy", "earnest", "elastic", "fabled", "feisty", "fervent", "frugal",
	"gaudy", "gentle", "glum", "grave", "hallowed", "hasty", "humble",
	"jovial", "keen", "limber", "lively", "lucid", "mellow", "modest",
	"nimble", "noble", "opaque", "placid", "plucky", "quaint", "rustic",
	"sage", "shrewd", "solemn", "spry", "stark", "stoic", "sturdy",
	"subtle", "tranquil", "vivid", "wary", "wistful", "zealous",
}

var nouns = []string{
	"abacus", "anchor", "anvil", "badger", "banjo", "beacon", "bicycle",
	"bobcat", "briefcase", "cactus", "caravan", "cobbler", "compass",
	"cricket", "cutlass", "dynamo", "easel", "falcon", "fiddle", "gazette",
	"glacier", "gondola", "hammock", "harbor", "heron", "jackal", "kettle",
	"lantern", "locket", "magpie", "mandolin", "marmot", "meadow", "mosaic",
	"nutmeg", "orchard", "otter", "panda", "pelican", "pendulum", "plough",
	"quill", "raven", "saddle", "satchel", "sextant", "sparrow", "spindle",
	"sundial", "tandem", "thicket", "trellis", "tripod", "vessel", "walrus",
	"wheelbarrow", "whistle", "willow", "zeppelin",
}
