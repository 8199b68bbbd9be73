// Package namegen generates human-memorable two-word session names
// (e.g. "brave-penguin"). Names are adjective-animal pairs chosen at
// random; callers pass the set of names already in use so a generated
// name is unique before anything touches the filesystem.
package namegen

import (
	"fmt"
	"math/rand"
)

var adjectives = []string{
	"able", "agile", "amber", "bold", "brave", "bright", "calm", "clever",
	"cosmic", "crisp", "daring", "deft", "eager", "fancy", "fierce", "fleet",
	"gentle", "glad", "golden", "happy", "hardy", "humble", "jolly", "keen",
	"kind", "lively", "lucky", "merry", "mighty", "nimble", "noble", "plucky",
	"proud", "quick", "quiet", "rapid", "rustic", "sharp", "shiny", "silent",
	"sleek", "smart", "snappy", "solid", "spry", "steady", "sunny", "swift",
	"tidy", "witty",
}

var animals = []string{
	"badger", "beaver", "bison", "condor", "coyote", "crane", "dingo",
	"dolphin", "falcon", "ferret", "finch", "fox", "gecko", "gibbon",
	"grouse", "heron", "hyena", "ibex", "jackal", "jaguar", "kestrel",
	"koala", "lemur", "lynx", "magpie", "marmot", "marten", "mole",
	"moose", "narwhal", "ocelot", "osprey", "otter", "owl", "panther",
	"pelican", "penguin", "plover", "puffin", "quokka", "rabbit", "raven",
	"seal", "shrew", "stoat", "swift", "tapir", "toucan", "walrus", "wombat",
}

// maxAttempts bounds random retries before falling back to a numeric suffix.
const maxAttempts = 64

// Generate returns a two-word name not present in taken.
func Generate(taken map[string]bool) string {
	return generate(taken, rand.Intn)
}

// generate accepts the random source so tests can be deterministic.
func generate(taken map[string]bool, intn func(int) int) string {
	for i := 0; i < maxAttempts; i++ {
		name := fmt.Sprintf("%s-%s", adjectives[intn(len(adjectives))], animals[intn(len(animals))])
		if !taken[name] {
			return name
		}
	}

	// Pathological case: nearly all combinations are taken. Disambiguate
	// with a counter rather than looping forever.
	base := fmt.Sprintf("%s-%s", adjectives[intn(len(adjectives))], animals[intn(len(animals))])
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s-%d", base, n)
		if !taken[name] {
			return name
		}
	}
}
