package models

import (
	"encoding/json"
	"testing"

	"dispatchportal/lib/constants"

	"github.com/stretchr/testify/assert"
)

func Test_NormalizeSecondaryRoles_List(t *testing.T) {
	//Arrange
	input := []string{"driver", " dispatcher ", ""}

	//Act
	roles := NormalizeSecondaryRoles(input)

	//Assert
	assert.Equal(t, map[string]bool{"driver": true, "dispatcher": true}, roles)
}

func Test_NormalizeSecondaryRoles_BoolMap(t *testing.T) {
	//Arrange
	input := map[string]bool{"admin": true, "driver": false}

	//Act
	roles := NormalizeSecondaryRoles(input)

	//Assert
	assert.Equal(t, map[string]bool{"admin": true}, roles)
}

func Test_NormalizeSecondaryRoles_DecodedJSON(t *testing.T) {
	// Both upstream shapes, as they come out of encoding/json.
	var fromList, fromMap interface{}
	assert.NoError(t, json.Unmarshal([]byte(`["driver","admin"]`), &fromList))
	assert.NoError(t, json.Unmarshal([]byte(`{"driver":true,"admin":false}`), &fromMap))

	assert.Equal(t, map[string]bool{"driver": true, "admin": true}, NormalizeSecondaryRoles(fromList))
	assert.Equal(t, map[string]bool{"driver": true}, NormalizeSecondaryRoles(fromMap))
}

func Test_NormalizeSecondaryRoles_UnknownShape(t *testing.T) {
	assert.Empty(t, NormalizeSecondaryRoles(42))
	assert.Empty(t, NormalizeSecondaryRoles(nil))
}

func Test_UserFromRaw_Aliases(t *testing.T) {
	//Arrange
	raw := &RawUser{
		MongoID:        "abc123",
		SecondaryRoles: []string{"driver"},
		VendorNumber:   "V42",
		Region:         "west",
	}

	//Act
	user := UserFromRaw(raw)

	//Assert
	assert.Equal(t, "abc123", user.ID)
	assert.Equal(t, constants.RoleNone, user.PrimaryRole)
	assert.Equal(t, "V42", user.VendorID)
	assert.Equal(t, []string{"west"}, user.Regions)
	assert.True(t, user.HasSecondaryRole(constants.SecondaryDriver))
}

func Test_UserFromRaw_Nil(t *testing.T) {
	assert.Nil(t, UserFromRaw(nil))
}

func Test_IsDriverOnly(t *testing.T) {
	driverOnly := &User{
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryDriver: true},
	}
	assert.True(t, driverOnly.IsDriverOnly())

	// A driver with a second role is not a bare driver.
	driverDispatcher := &User{
		PrimaryRole: constants.RoleNone,
		SecondaryRoles: map[string]bool{
			constants.SecondaryDriver:     true,
			constants.SecondaryDispatcher: true,
		},
	}
	assert.False(t, driverDispatcher.IsDriverOnly())

	// A primary role disqualifies regardless of secondary roles.
	spDriver := &User{
		PrimaryRole:    constants.RoleServiceProvider,
		SecondaryRoles: map[string]bool{constants.SecondaryDriver: true},
	}
	assert.False(t, spDriver.IsDriverOnly())
}

func Test_OwnerOrganization(t *testing.T) {
	assert.True(t, (&User{VendorID: "1"}).OwnerOrganization())
	assert.True(t, (&User{VendorID: "OW-north"}).OwnerOrganization())
	assert.False(t, (&User{VendorID: "V42"}).OwnerOrganization())
	assert.False(t, (&User{}).OwnerOrganization())
}

func Test_MatchesID(t *testing.T) {
	user := &User{ID: "u1", MongoID: "m1"}

	assert.True(t, user.MatchesID("u1"))
	assert.True(t, user.MatchesID("m1"))
	assert.False(t, user.MatchesID("u2"))
	assert.False(t, user.MatchesID(""))
}

func Test_DisplayNames(t *testing.T) {
	//Arrange
	user := &User{Name: "Jo Rivera", Username: "jrivera", Email: "jo.rivera@example.com"}

	//Act
	names := user.DisplayNames()

	//Assert
	assert.Equal(t, []string{"Jo Rivera", "jrivera", "jo.rivera"}, names)
}

func Test_SecondaryRoleList_StableOrder(t *testing.T) {
	user := &User{SecondaryRoles: map[string]bool{
		constants.SecondaryDriver: true,
		constants.SecondaryAdmin:  true,
	}}

	assert.Equal(t, []string{constants.SecondaryAdmin, constants.SecondaryDriver}, user.SecondaryRoleList())
}

func Test_Job_KeyAndACL(t *testing.T) {
	job := &Job{MongoID: "j1", VisibleTo: []string{"u1"}}

	assert.Equal(t, "j1", job.Key())
	assert.True(t, job.VisibleToUser("u1"))
	assert.False(t, job.VisibleToUser("u2"))
	assert.False(t, job.VisibleToUser(""))
}
