package httpapi

import (
	"fmt"
	"math/rand/v2"
)

var (
	nameAdjectives = []string{
		"amber", "bold", "brisk", "calm", "clever", "crisp", "eager",
		"fuzzy", "gentle", "jolly", "keen", "lively", "mellow", "noble",
		"quick", "quiet", "rapid", "silent", "swift", "vivid",
	}
	nameColors = []string{
		"azure", "coral", "crimson", "emerald", "golden", "indigo",
		"ivory", "jade", "maroon", "olive", "pearl", "scarlet",
		"silver", "teal", "violet",
	}
	nameAnimals = []string{
		"badger", "condor", "dolphin", "falcon", "gecko", "heron",
		"ibex", "jaguar", "lynx", "marmot", "narwhal", "otter",
		"panther", "raven", "stork", "tapir", "walrus", "wombat",
	}
)

// randomProjectName builds an adjective-color-animal slug for projects
// created from a bare prompt.
func randomProjectName() string {
	return fmt.Sprintf("%s-%s-%s",
		nameAdjectives[rand.IntN(len(nameAdjectives))],
		nameColors[rand.IntN(len(nameColors))],
		nameAnimals[rand.IntN(len(nameAnimals))],
	)
}
