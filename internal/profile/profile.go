// Package profile owns the user directory: profile fields, saved
// addresses and family members. Unlike the cart, writes here are explicit
// form submissions, so remote failures surface to the caller instead of
// being swallowed.
package profile

import (
	"github.com/citymeds/citymeds-go/internal/gateway"
	"github.com/citymeds/citymeds-go/pkg/enums"
)

// Profile is the mutable subset of the remote profile record. The guest
// sentinel has an empty UserID and is never written remotely.
type Profile struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Gender      string `json:"gender,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	BloodGroup  string `json:"blood_group,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// IsGuest reports whether this is the unauthenticated sentinel profile.
func (p Profile) IsGuest() bool { return p.UserID == "" }

// Patch carries profile fields to change. Nil means "leave untouched".
type Patch struct {
	Name        *string
	Email       *string
	Gender      *string
	DateOfBirth *string
	BloodGroup  *string
	AvatarURL   *string
}

// columns maps the set fields to their remote column names.
func (p Patch) columns() gateway.Row {
	changes := gateway.Row{}
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.Email != nil {
		changes["email"] = *p.Email
	}
	if p.Gender != nil {
		changes["gender"] = *p.Gender
	}
	if p.DateOfBirth != nil {
		changes["date_of_birth"] = *p.DateOfBirth
	}
	if p.BloodGroup != nil {
		changes["blood_group"] = *p.BloodGroup
	}
	if p.AvatarURL != nil {
		changes["avatar_url"] = *p.AvatarURL
	}
	return changes
}

func (p Patch) apply(profile Profile) Profile {
	if p.Name != nil {
		profile.Name = *p.Name
	}
	if p.Email != nil {
		profile.Email = *p.Email
	}
	if p.Gender != nil {
		profile.Gender = *p.Gender
	}
	if p.DateOfBirth != nil {
		profile.DateOfBirth = *p.DateOfBirth
	}
	if p.BloodGroup != nil {
		profile.BloodGroup = *p.BloodGroup
	}
	if p.AvatarURL != nil {
		profile.AvatarURL = *p.AvatarURL
	}
	return profile
}

// Address is one saved delivery address. At most one address per user
// carries IsDefault.
type Address struct {
	ID        string           `json:"id"`
	Tag       enums.AddressTag `json:"tag" validate:"required"`
	Line1     string           `json:"line1" validate:"required"`
	Line2     string           `json:"line2,omitempty"`
	City      string           `json:"city" validate:"required"`
	Pincode   string           `json:"pincode" validate:"required,numeric,len=6"`
	IsDefault bool             `json:"is_default"`
}

// FamilyMember is a dependent the user can order for.
type FamilyMember struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Relation string `json:"relation" validate:"required"`
	Age      int    `json:"age" validate:"gte=0,lte=120"`
	Gender   string `json:"gender,omitempty"`
}

// State is the local directory cache.
type State struct {
	Profile   Profile        `json:"profile"`
	Addresses []Address      `json:"addresses"`
	Family    []FamilyMember `json:"family"`
}

func addressRow(userID string, addr Address) gateway.Row {
	return gateway.Row{
		"user_id":    userID,
		"tag":        addr.Tag.String(),
		"line1":      addr.Line1,
		"line2":      addr.Line2,
		"city":       addr.City,
		"pincode":    addr.Pincode,
		"is_default": addr.IsDefault,
	}
}

func addressFromRow(row gateway.Row) Address {
	return Address{
		ID:        row.String("id"),
		Tag:       enums.AddressTag(row.String("tag")),
		Line1:     row.String("line1"),
		Line2:     row.String("line2"),
		City:      row.String("city"),
		Pincode:   row.String("pincode"),
		IsDefault: row.Bool("is_default"),
	}
}

func memberRow(userID string, member FamilyMember) gateway.Row {
	return gateway.Row{
		"user_id":  userID,
		"name":     member.Name,
		"relation": member.Relation,
		"age":      member.Age,
		"gender":   member.Gender,
	}
}

func memberFromRow(row gateway.Row) FamilyMember {
	return FamilyMember{
		ID:       row.String("id"),
		Name:     row.String("name"),
		Relation: row.String("relation"),
		Age:      row.Int("age"),
		Gender:   row.String("gender"),
	}
}

func profileFromRow(userID string, row gateway.Row) Profile {
	return Profile{
		UserID:      userID,
		Name:        row.String("name"),
		Email:       row.String("email"),
		Gender:      row.String("gender"),
		DateOfBirth: row.String("date_of_birth"),
		BloodGroup:  row.String("blood_group"),
		AvatarURL:   row.String("avatar_url"),
	}
}

func cloneAddresses(addresses []Address) []Address {
	copied := make([]Address, len(addresses))
	copy(copied, addresses)
	return copied
}

func cloneFamily(family []FamilyMember) []FamilyMember {
	copied := make([]FamilyMember, len(family))
	copy(copied, family)
	return copied
}
