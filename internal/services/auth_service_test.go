package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/auth"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/testutil"
)

func TestLoginLogout(t *testing.T) {
	conn := testutil.NewDB(t)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	denylist := auth.NewMemoryDenylist()
	svc := NewAuthService(conn, audit.NewRecorder(), issuer, denylist)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, audit.System, NewUser{Username: "kadry", Password: "short"})
	assert.ErrorIs(t, err, ErrValidationInput)
	user, err := svc.CreateUser(ctx, audit.System, NewUser{Username: "kadry", Password: "s3cret-pass", Role: models.RolePersonnelOfficer})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, audit.System, NewUser{Username: "kadry", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Login(ctx, audit.Context{IPAddress: "10.0.0.1"}, "kadry", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, audit.System, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login(ctx, audit.Context{IPAddress: "10.0.0.1"}, "kadry", "s3cret-pass")
	require.NoError(t, err)
	require.NotNil(t, res.User.LastLoginAt)
	claims, err := issuer.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	logins, total, err := repositories.NewGormAuditLogRepository(conn).List(ctx, repositories.AuditLogFilter{Action: models.AuditLogin})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, user.ID, *logins[0].UserID)
	assert.Equal(t, claims.ID, logins[0].SessionKey)
	assert.Equal(t, "10.0.0.1", logins[0].IPAddress)

	actx := audit.Context{UserID: &user.ID, SessionKey: claims.ID}
	require.NoError(t, svc.Logout(ctx, actx, claims.ExpiresAt.Time))
	denied, err := denylist.Contains(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, denied)
	assert.ErrorIs(t, svc.Logout(ctx, audit.System, time.Now()), ErrValidationInput)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "kadry", me.Username)
	_, err = svc.Me(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetRoleWritesPermissionChange(t *testing.T) {
	conn := testutil.NewDB(t)
	svc := NewAuthService(conn, audit.NewRecorder(), auth.NewTokenIssuer("secret", time.Hour), auth.NewMemoryDenylist())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, audit.System, NewUser{Username: "komandyr", Password: "password1"})
	require.NoError(t, err)
	u, err := svc.SetRole(ctx, audit.System, "komandyr", models.RoleCommander)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCommander, u.Role)

	_, err = svc.SetRole(ctx, audit.System, "komandyr", "general")
	assert.ErrorIs(t, err, ErrValidationInput)
	_, err = svc.SetRole(ctx, audit.System, "ghost", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrUserNotFound)

	rows, total, err := repositories.NewGormAuditLogRepository(conn).List(ctx, repositories.AuditLogFilter{Action: models.AuditPermissionChange})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, models.SeverityWarning, rows[0].Severity)
	assert.Equal(t, "role: staff_officer → commander", ChangesDisplay(rows[0]))
}
