package placement

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// CustomClassPrefix marks resource classes created by operators rather than
// shipped with the service.
const CustomClassPrefix = "CUSTOM_"

// StandardClasses is the fixed vocabulary of resource classes every
// placement service knows about.
var StandardClasses = []string{
	"VCPU",
	"MEMORY_MB",
	"DISK_GB",
	"PCI_DEVICE",
	"SRIOV_NET_VF",
	"NUMA_SOCKET",
	"NUMA_CORE",
	"NUMA_THREAD",
	"NUMA_MEMORY_MB",
	"IPV4_ADDRESS",
	"VGPU",
	"VGPU_DISPLAY_HEAD",
}

var classNameRe = regexp.MustCompile(`^[A-Z0-9_]+$`)

// IsCustomClass reports whether name is in the operator-defined namespace.
func IsCustomClass(name string) bool {
	return strings.HasPrefix(name, CustomClassPrefix)
}

// ValidCustomClassName reports whether name is acceptable for resource
// class creation: CUSTOM_ prefix plus uppercase alphanumerics and
// underscores.
func ValidCustomClassName(name string) bool {
	return IsCustomClass(name) && classNameRe.MatchString(name)
}

// Vocabulary is the set of resource class names valid for one invocation:
// the standard classes plus any custom classes resolved from the service.
type Vocabulary map[string]struct{}

// NewVocabulary builds a vocabulary from the standard classes and any
// extras.
func NewVocabulary(extras ...string) Vocabulary {
	v := make(Vocabulary, len(StandardClasses)+len(extras))
	for _, c := range StandardClasses {
		v[c] = struct{}{}
	}
	for _, c := range extras {
		v[c] = struct{}{}
	}
	return v
}

// Contains reports whether name is a known resource class.
func (v Vocabulary) Contains(name string) bool {
	_, ok := v[name]
	return ok
}

// Names returns the vocabulary sorted alphabetically.
func (v Vocabulary) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// maxSuggestDistance bounds how far a typo may be from a known class before
// we stop suggesting it.
const maxSuggestDistance = 4

// Suggest returns the known class closest to name, or "" when nothing is
// close enough to be a plausible typo.
func (v Vocabulary) Suggest(name string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, candidate := range v.Names() {
		d := levenshtein.ComputeDistance(name, candidate)
		if d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	if bestDist > maxSuggestDistance {
		return ""
	}
	return best
}
