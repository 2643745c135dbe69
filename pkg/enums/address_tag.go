package enums

import "fmt"

// AddressTag labels a saved delivery address.
type AddressTag string

const (
	AddressTagHome   AddressTag = "Home"
	AddressTagOffice AddressTag = "Office"
	AddressTagOther  AddressTag = "Other"
)

var validAddressTags = []AddressTag{
	AddressTagHome,
	AddressTagOffice,
	AddressTagOther,
}

// String implements fmt.Stringer.
func (t AddressTag) String() string {
	return string(t)
}

// IsValid reports whether the value is a known AddressTag.
func (t AddressTag) IsValid() bool {
	for _, candidate := range validAddressTags {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAddressTag converts raw input into an AddressTag.
func ParseAddressTag(value string) (AddressTag, error) {
	for _, candidate := range validAddressTags {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address tag %q", value)
}
