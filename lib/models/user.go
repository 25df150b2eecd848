// Package models defines the data structures used throughout the dispatch
// portal authorization core. These models map the shapes handed over by the
// portal frontend and API layer and are used for:
// 1. Permission profile computation and caching
// 2. Resource-scoped authorization decisions
// 3. Driver-assignment resolution
//
// All models use JSON tags matching the field names the portal stores.
package models

import (
	"strings"

	"dispatchportal/lib/constants"
)

// RawUser mirrors the user-profile object exactly as persisted by the portal,
// aliases included. Upstream stores the id as either "id" or "_id", the
// vendor as "vendorId" or "vendorNumber", the regions as a list or a single
// "region", and the secondary roles as either a list of names or a map of
// name -> bool. Callers never branch on these shapes; UserFromRaw resolves
// them once at the boundary.
type RawUser struct {
	ID             string      `json:"id,omitempty"`
	MongoID        string      `json:"_id,omitempty"`
	PrimaryRole    string      `json:"primaryRole,omitempty"`
	SecondaryRoles interface{} `json:"secondaryRoles,omitempty"` // []string or map[string]bool
	VendorID       string      `json:"vendorId,omitempty"`
	VendorNumber   string      `json:"vendorNumber,omitempty"`
	Regions        []string    `json:"regions,omitempty"`
	Region         string      `json:"region,omitempty"`
	Username       string      `json:"username,omitempty"`
	Name           string      `json:"name,omitempty"`
	Email          string      `json:"email,omitempty"`
}

// User is the normalized authorization subject every gating function works
// with. SecondaryRoles is always a set regardless of how the snapshot stored
// it.
type User struct {
	ID             string          `json:"id"`
	MongoID        string          `json:"_id,omitempty"`
	PrimaryRole    string          `json:"primaryRole"`
	SecondaryRoles map[string]bool `json:"secondaryRoles"`
	VendorID       string          `json:"vendorId,omitempty"`
	Regions        []string        `json:"regions,omitempty"`
	Username       string          `json:"username,omitempty"`
	Name           string          `json:"name,omitempty"`
	Email          string          `json:"email,omitempty"`
}

// NormalizeSecondaryRoles converts either upstream representation of
// secondary roles (list of names, or map of name -> bool) into a set.
// Unknown shapes normalize to an empty set rather than failing.
func NormalizeSecondaryRoles(value interface{}) map[string]bool {
	roles := map[string]bool{}

	switch v := value.(type) {
	case []string:
		for _, name := range v {
			if name = strings.TrimSpace(name); name != "" {
				roles[name] = true
			}
		}
	case []interface{}:
		// JSON-decoded lists arrive as []interface{}.
		for _, item := range v {
			if name, ok := item.(string); ok {
				if name = strings.TrimSpace(name); name != "" {
					roles[name] = true
				}
			}
		}
	case map[string]bool:
		for name, enabled := range v {
			if enabled {
				roles[name] = true
			}
		}
	case map[string]interface{}:
		// JSON-decoded maps arrive as map[string]interface{}.
		for name, enabled := range v {
			if b, ok := enabled.(bool); ok && b {
				roles[name] = true
			}
		}
	}

	return roles
}

// NormalizeSecondaryRolesList normalizes either upstream representation into
// a stable list, for serialization contexts that want names rather than a
// set.
func NormalizeSecondaryRolesList(value interface{}) []string {
	u := &User{SecondaryRoles: NormalizeSecondaryRoles(value)}
	return u.SecondaryRoleList()
}

// UserFromRaw resolves the legacy field aliases on a stored snapshot and
// returns the normalized subject. A nil snapshot yields nil.
func UserFromRaw(raw *RawUser) *User {
	if raw == nil {
		return nil
	}

	id := raw.ID
	if id == "" {
		id = raw.MongoID
	}

	vendorID := raw.VendorID
	if vendorID == "" {
		vendorID = raw.VendorNumber
	}

	regions := raw.Regions
	if len(regions) == 0 && raw.Region != "" {
		regions = []string{raw.Region}
	}

	primaryRole := raw.PrimaryRole
	if primaryRole == "" {
		primaryRole = constants.RoleNone
	}

	return &User{
		ID:             id,
		MongoID:        raw.MongoID,
		PrimaryRole:    primaryRole,
		SecondaryRoles: NormalizeSecondaryRoles(raw.SecondaryRoles),
		VendorID:       vendorID,
		Regions:        regions,
		Username:       raw.Username,
		Name:           raw.Name,
		Email:          raw.Email,
	}
}

// HasSecondaryRole checks whether the user holds the given secondary role.
func (u *User) HasSecondaryRole(role string) bool {
	return u != nil && u.SecondaryRoles[role]
}

// IsDriverOnly reports whether the user is a bare driver: no primary role and
// exactly the driver secondary role.
func (u *User) IsDriverOnly() bool {
	if u == nil {
		return false
	}
	return u.PrimaryRole == constants.RoleNone &&
		len(u.SecondaryRoles) == 1 &&
		u.SecondaryRoles[constants.SecondaryDriver]
}

// OwnerVendor reports whether a vendor id identifies the owning motor-club
// organization. The legacy convention (vendor id "1" or an "OW" prefix) lives
// here and nowhere else, so it can be replaced with a modeled flag without
// touching the rules that consume it.
func OwnerVendor(vendorID string) bool {
	if vendorID == "" {
		return false
	}
	return vendorID == constants.OwnerVendorID ||
		strings.HasPrefix(vendorID, constants.OwnerVendorPrefix)
}

// OwnerOrganization reports whether the user belongs to the owning motor-club
// organization.
func (u *User) OwnerOrganization() bool {
	return u != nil && OwnerVendor(u.VendorID)
}

// InRegion checks whether the given region is in the user's region set.
func (u *User) InRegion(region string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// HasIdentity reports whether any id field has been loaded yet. During the
// initial render the profile fetch may still be in flight, in which case the
// assignment resolver falls back to its optimistic path.
func (u *User) HasIdentity() bool {
	return u != nil && (u.ID != "" || u.MongoID != "")
}

// MatchesID checks an id against every id the user is known by.
func (u *User) MatchesID(id string) bool {
	if u == nil || id == "" {
		return false
	}
	return id == u.ID || id == u.MongoID
}

// DisplayNames returns the candidate strings used for fuzzy matching against
// a job's driver display name: full name, username, and the local part of the
// email address.
func (u *User) DisplayNames() []string {
	if u == nil {
		return nil
	}
	var names []string
	if u.Name != "" {
		names = append(names, u.Name)
	}
	if u.Username != "" {
		names = append(names, u.Username)
	}
	if u.Email != "" {
		if at := strings.Index(u.Email, "@"); at > 0 {
			names = append(names, u.Email[:at])
		}
	}
	return names
}

// SecondaryRoleList returns the secondary roles as a sorted-stable list for
// serialization into the permission profile.
func (u *User) SecondaryRoleList() []string {
	if u == nil {
		return nil
	}
	var list []string
	// Fixed order keeps serialized profiles byte-stable across recomputes.
	for _, role := range []string{
		constants.SecondaryAdmin,
		constants.SecondaryDispatcher,
		constants.SecondaryAnsweringService,
		constants.SecondaryDriver,
	} {
		if u.SecondaryRoles[role] {
			list = append(list, role)
		}
	}
	for role := range u.SecondaryRoles {
		switch role {
		case constants.SecondaryAdmin, constants.SecondaryDispatcher,
			constants.SecondaryAnsweringService, constants.SecondaryDriver:
		default:
			list = append(list, role)
		}
	}
	return list
}
