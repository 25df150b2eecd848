package session

import (
	"context"
	"testing"
	"time"

	"dispatchportal/lib/auth"
	"dispatchportal/lib/constants"
	"dispatchportal/lib/data"
	"dispatchportal/lib/models"
	"dispatchportal/lib/status"
	"dispatchportal/lib/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newSessionService(t *testing.T) (*Service, *store.PermissionStore, *auth.PermissionManager) {
	t.Helper()
	logger := logrus.New()

	st := store.NewPermissionStore(data.NewMemoryDao(logger), logger)
	resolver := auth.NewJobAssignmentResolver(data.NewMemoryAssignmentDao(logger), st, logger)
	manager := auth.NewPermissionManager(st, resolver, logger)
	return NewService(st, manager, logger), st, manager
}

func Test_Login_Success(t *testing.T) {
	//Arrange
	service, st, _ := newSessionService(t)
	ctx := context.Background()
	raw := &models.RawUser{
		ID:             "u1",
		PrimaryRole:    constants.RoleRegionalManager,
		SecondaryRoles: []interface{}{"dispatcher"},
		VendorID:       "V7",
		Regions:        []string{"west"},
		Name:           "Jo Rivera",
	}

	//Act
	sess, err := service.Login(ctx, raw)

	//Assert
	assert.NoError(t, err)
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, constants.RoleRegionalManager, sess.Profile.PrimaryRole)
	assert.True(t, sess.Profile.PageAccess[constants.PageJobs])

	// Both the snapshot and the profile survive a storage round trip.
	assert.NotNil(t, st.GetUserSnapshot(ctx))
	assert.NotNil(t, st.GetPermissions(ctx))
}

func Test_Login_NilSnapshot(t *testing.T) {
	service, _, _ := newSessionService(t)

	sess, err := service.Login(context.Background(), nil)

	assert.Error(t, err)
	assert.Nil(t, sess)
}

func Test_Logout_ClearsEverything(t *testing.T) {
	//Arrange
	service, st, manager := newSessionService(t)
	ctx := context.Background()
	sess, err := service.Login(ctx, &models.RawUser{ID: "u1", PrimaryRole: constants.RoleOwner})
	assert.NoError(t, err)

	user := sess.User
	job := &models.Job{ID: "j1", Status: status.Pending}
	assert.True(t, manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionView))

	//Act
	assert.NoError(t, service.Logout(ctx, sess))

	//Assert: the session object is zeroed and nothing persisted remains.
	assert.Nil(t, sess.Raw)
	assert.Nil(t, sess.User)
	assert.Nil(t, sess.Profile)
	assert.Nil(t, st.GetUserSnapshot(ctx))
	assert.Nil(t, st.GetPermissions(ctx))

	// A check racing the logout fails closed, even for the just-cached
	// decision.
	assert.False(t, manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionView))
}

func Test_Logout_EmptySession(t *testing.T) {
	service, _, _ := newSessionService(t)

	assert.NoError(t, service.Logout(context.Background(), nil))
}

func Test_SnapshotToken_RoundTrip(t *testing.T) {
	//Arrange
	raw := &models.RawUser{
		MongoID:        "m-77",
		PrimaryRole:    constants.RoleServiceProvider,
		SecondaryRoles: map[string]interface{}{"driver": true, "admin": false},
		VendorNumber:   "V7",
		Regions:        []string{"west", "north"},
		Username:       "jrivera",
		Email:          "jo@towco.example",
	}

	//Act
	token, err := EncodeSnapshot("topsecret", raw, time.Hour)
	assert.NoError(t, err)
	decoded, err := DecodeSnapshot("topsecret", token)

	//Assert: alias fields collapse into the canonical ones on the way out.
	assert.NoError(t, err)
	assert.Equal(t, "m-77", decoded.ID)
	assert.Equal(t, constants.RoleServiceProvider, decoded.PrimaryRole)
	assert.Equal(t, "V7", decoded.VendorID)
	assert.Equal(t, []string{"west", "north"}, decoded.Regions)
	assert.Equal(t, "jrivera", decoded.Username)

	user := models.UserFromRaw(decoded)
	assert.True(t, user.HasSecondaryRole(constants.SecondaryDriver))
	assert.False(t, user.HasSecondaryRole(constants.SecondaryAdmin))
}

func Test_SnapshotToken_WrongSecret(t *testing.T) {
	token, err := EncodeSnapshot("topsecret", &models.RawUser{ID: "u1"}, time.Hour)
	assert.NoError(t, err)

	decoded, err := DecodeSnapshot("other-secret", token)

	assert.Error(t, err)
	assert.Nil(t, decoded)
}

func Test_SnapshotToken_Expired(t *testing.T) {
	token, err := EncodeSnapshot("topsecret", &models.RawUser{ID: "u1"}, -time.Minute)
	assert.NoError(t, err)

	decoded, err := DecodeSnapshot("topsecret", token)

	assert.Error(t, err)
	assert.Nil(t, decoded)
}
