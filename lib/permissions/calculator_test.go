package permissions

import (
	"testing"

	"dispatchportal/lib/constants"
	"dispatchportal/lib/models"
	"dispatchportal/lib/status"

	"github.com/stretchr/testify/assert"
)

func owner() *models.User {
	return &models.User{ID: "u-ow", PrimaryRole: constants.RoleOwner, SecondaryRoles: map[string]bool{}}
}

func driverOnly() *models.User {
	return &models.User{
		ID:             "u-drv",
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryDriver: true},
	}
}

func Test_ComputeProfile_OwnerGetsEveryPage(t *testing.T) {
	for _, role := range []string{constants.RoleOwner, constants.RoleSubOwner} {
		//Arrange
		user := &models.User{ID: "u1", PrimaryRole: role, SecondaryRoles: map[string]bool{}}

		//Act
		profile := ComputeProfile(user)

		//Assert
		for _, page := range constants.AllPages() {
			assert.True(t, profile.PageAccess[page], "%s should reach %s", role, page)
		}
	}
}

func Test_ComputeProfile_RegionalManagerPages(t *testing.T) {
	profile := ComputeProfile(&models.User{PrimaryRole: constants.RoleRegionalManager, SecondaryRoles: map[string]bool{}})

	assert.True(t, profile.PageAccess[constants.PageDashboard])
	assert.True(t, profile.PageAccess[constants.PageSettings])
	assert.True(t, profile.PageAccess[constants.PageUsers])
	assert.True(t, profile.PageAccess[constants.PagePerformance])
	assert.True(t, profile.PageAccess[constants.PagePayments])
	// Regions is gated to owners; Submissions is never granted to RM.
	assert.False(t, profile.PageAccess[constants.PageRegions])
	assert.False(t, profile.PageAccess[constants.PageSubmissions])
}

func Test_ComputeProfile_ServiceProviderPages(t *testing.T) {
	profile := ComputeProfile(&models.User{PrimaryRole: constants.RoleServiceProvider, SecondaryRoles: map[string]bool{}})

	assert.True(t, profile.PageAccess[constants.PageSettings])
	assert.True(t, profile.PageAccess[constants.PagePayments])
	assert.False(t, profile.PageAccess[constants.PageSubmissions])
	assert.False(t, profile.PageAccess[constants.PageRegions])
}

func Test_ComputeProfile_DispatcherSecondaryAddsPerformance(t *testing.T) {
	profile := ComputeProfile(&models.User{
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryDispatcher: true},
		VendorID:       "V42",
	})

	assert.True(t, profile.PageAccess[constants.PagePerformance])
	assert.False(t, profile.PageAccess[constants.PageSettings])
}

func Test_ComputeProfile_CreateJobs(t *testing.T) {
	// Unconditional for management roles, never for SP.
	assert.True(t, ComputeProfile(&models.User{PrimaryRole: constants.RoleRegionalManager}).CanCreateJobs)
	assert.False(t, ComputeProfile(&models.User{PrimaryRole: constants.RoleServiceProvider}).CanCreateJobs)

	// Dispatch staff create jobs only inside the owning organization.
	ownerDispatcher := &models.User{
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryDispatcher: true},
		VendorID:       "1",
	}
	assert.True(t, ComputeProfile(ownerDispatcher).CanCreateJobs)

	vendorDispatcher := &models.User{
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryDispatcher: true},
		VendorID:       "V42",
	}
	assert.False(t, ComputeProfile(vendorDispatcher).CanCreateJobs)
}

func Test_ComputeProfile_DispatchAndApprovalFlags(t *testing.T) {
	drv := ComputeProfile(driverOnly())
	assert.False(t, drv.CanDispatchJobs)
	assert.False(t, drv.CanRequestGOA)
	assert.False(t, drv.CanApproveGOA)
	assert.False(t, drv.CanManageUsers)

	sp := ComputeProfile(&models.User{PrimaryRole: constants.RoleServiceProvider})
	assert.True(t, sp.CanDispatchJobs)
	assert.True(t, sp.CanRequestGOA)
	assert.False(t, sp.CanApproveGOA)
	assert.True(t, sp.CanManageUsers)

	admin := ComputeProfile(&models.User{
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryAdmin: true},
	})
	assert.True(t, admin.CanApproveGOA)
	assert.True(t, admin.CanApproveUnsuccessful)
	assert.True(t, admin.CanRequestGOA)
	assert.True(t, admin.CanManageUsers)
	assert.False(t, admin.CanDispatchJobs)
}

func Test_ComputeProfile_SecondaryRolesNeedNoPrimaryRole(t *testing.T) {
	//Arrange: SP users carrying secondary roles that would widen an N/A
	// user's grants.
	spAdmin := ComputeProfile(&models.User{
		PrimaryRole:    constants.RoleServiceProvider,
		SecondaryRoles: map[string]bool{constants.SecondaryAdmin: true},
	})
	spDispatcher := ComputeProfile(&models.User{
		PrimaryRole:    constants.RoleServiceProvider,
		SecondaryRoles: map[string]bool{constants.SecondaryDispatcher: true},
		VendorID:       "OW-main",
	})

	//Assert: the primary role decides; the secondary never widens it.
	assert.False(t, spAdmin.CanApproveGOA)
	assert.False(t, spAdmin.CanApproveUnsuccessful)
	assert.False(t, spDispatcher.DeleteJobs)
	assert.False(t, spDispatcher.CanCreateJobs)

	// Grants the SP role carries itself are unaffected.
	assert.True(t, spAdmin.CanRequestGOA)
	assert.True(t, spDispatcher.CanDispatchJobs)
	assert.True(t, spAdmin.CanManageUsers)
}

func Test_ComputeProfile_DeleteJobs(t *testing.T) {
	assert.True(t, ComputeProfile(owner()).DeleteJobs)
	assert.True(t, ComputeProfile(&models.User{PrimaryRole: constants.RoleRegionalManager}).DeleteJobs)
	assert.False(t, ComputeProfile(&models.User{PrimaryRole: constants.RoleServiceProvider}).DeleteJobs)

	ownerDispatcher := &models.User{
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryDispatcher: true},
		VendorID:       "OW-hq",
	}
	assert.True(t, ComputeProfile(ownerDispatcher).DeleteJobs)
}

func Test_ComputeProfile_DriverOnlyConvenienceBlock(t *testing.T) {
	//Act
	drv := ComputeProfile(driverOnly())
	dispatcher := ComputeProfile(&models.User{
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryDispatcher: true},
	})

	//Assert: the block is a bare-driver check, not independent rules.
	assert.False(t, drv.CancelJobs)
	assert.False(t, drv.MarkJobsGoa)
	assert.False(t, drv.DuplicateJobs)
	assert.False(t, drv.ReactivateJobs)
	assert.False(t, drv.UpdateJobsInCompletedTabs)

	assert.True(t, dispatcher.CancelJobs)
	assert.True(t, dispatcher.MarkJobsGoa)
	assert.True(t, dispatcher.DuplicateJobs)
}

func Test_ComputeProfile_Progressions_Privileged(t *testing.T) {
	profile := ComputeProfile(&models.User{PrimaryRole: constants.RoleRegionalManager})

	assert.True(t, profile.AllowsProgression(status.Completed, status.Pending))
	assert.True(t, profile.AllowsProgression(status.Pending, status.Completed))
}

func Test_ComputeProfile_Progressions_DriverRestricted(t *testing.T) {
	profile := ComputeProfile(driverOnly())

	assert.True(t, profile.AllowsProgression(status.Dispatched, status.EnRoute))
	assert.True(t, profile.AllowsProgression(status.EnRoute, status.OnSite))
	assert.True(t, profile.AllowsProgression(status.OnSite, status.Completed))

	assert.False(t, profile.AllowsProgression(status.Dispatched, status.OnSite))
	assert.False(t, profile.AllowsProgression(status.OnSite, status.EnRoute))
	assert.False(t, profile.AllowsProgression(status.OnSite, status.GOA))
	assert.False(t, profile.AllowsProgression(status.Pending, status.Scheduled))
}

func Test_ComputeProfile_IdentityEcho(t *testing.T) {
	//Arrange
	user := &models.User{
		ID:             "u9",
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryAdmin: true, constants.SecondaryDriver: true},
		VendorID:       "V7",
		Regions:        []string{"west"},
	}

	//Act
	profile := ComputeProfile(user)

	//Assert
	assert.Equal(t, "u9", profile.UserID)
	assert.Equal(t, constants.RoleNone, profile.PrimaryRole)
	assert.Equal(t, []string{constants.SecondaryAdmin, constants.SecondaryDriver}, profile.SecondaryRoles)
	assert.Equal(t, "V7", profile.VendorID)
	assert.False(t, profile.IsDriverOnly)
}

func Test_ComputeProfile_Nil(t *testing.T) {
	assert.Nil(t, ComputeProfile(nil))
}

func Test_DefaultDriverProfile(t *testing.T) {
	profile := DefaultDriverProfile()

	assert.True(t, profile.IsDriverOnly)
	assert.False(t, profile.CanDispatchJobs)
	assert.True(t, profile.PageAccess[constants.PageDashboard])
	assert.True(t, profile.AllowsProgression(status.Dispatched, status.EnRoute))
}
