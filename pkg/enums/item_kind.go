package enums

import "fmt"

// ItemKind classifies a cart line by the catalog vertical it came from.
type ItemKind string

const (
	ItemKindMedicine  ItemKind = "medicine"
	ItemKindLab       ItemKind = "lab"
	ItemKindScan      ItemKind = "scan"
	ItemKindDoctor    ItemKind = "doctor"
	ItemKindService   ItemKind = "service"
	ItemKindInsurance ItemKind = "insurance"
)

var validItemKinds = []ItemKind{
	ItemKindMedicine,
	ItemKindLab,
	ItemKindScan,
	ItemKindDoctor,
	ItemKindService,
	ItemKindInsurance,
}

// String implements fmt.Stringer.
func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ItemKind.
func (k ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseItemKind converts raw input into an ItemKind.
func ParseItemKind(value string) (ItemKind, error) {
	for _, candidate := range validItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}
