package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/robot-helper/internal/storage"
)

func TestIntegration_SaveUser_And_Lookups(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	u := seedUser(t, st, "alice", "alice@example.com")

	byID, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Username, byID.Username)
	require.Equal(t, u.Email, byID.Email)
	require.True(t, byID.IsActive)
	require.False(t, byID.IsSuperuser)
	require.Nil(t, byID.LastLogin)

	// CITEXT: поиск без учёта регистра.
	byName, err := st.UserByUsername(ctx, "ALICE")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)

	byEmail, err := st.UserByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
}

func TestIntegration_SaveUser_DuplicateUsernameAndEmail(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	seedUser(t, st, "bob", "bob@example.com")

	err := st.SaveUser(ctx, newUser("BOB", "other@example.com"))
	require.ErrorIs(t, err, storage.ErrUsernameExists)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	err = st.SaveUser(ctx, newUser("bobby", "BOB@example.com"))
	require.ErrorIs(t, err, storage.ErrEmailExists)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_UserLookups_NotFound(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	_, err := st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByUsername(ctx, "ghost")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_UpdateUser_And_LastLogin(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	u := seedUser(t, st, "carol", "carol@example.com")
	u.FullName = "Carol New"
	u.PasswordHash = "new-hash"
	u.UpdatedAt = u.UpdatedAt.Add(time.Minute)
	require.NoError(t, st.UpdateUser(ctx, u))

	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, st.UpdateLastLogin(ctx, u.ID, at))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Carol New", got.FullName)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.NotNil(t, got.LastLogin)
	require.WithinDuration(t, at, *got.LastLogin, time.Millisecond)

	missing := newUser("x", "x@example.com")
	require.ErrorIs(t, st.UpdateUser(ctx, missing), storage.ErrNotFound)
	require.ErrorIs(t, st.UpdateLastLogin(ctx, missing.ID, at), storage.ErrNotFound)
}

func TestIntegration_DeleteUser_CascadesScripts(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	u := seedUser(t, st, "dave", "dave@example.com")
	sc := newScript(u.ID, "greeting")
	require.NoError(t, st.SaveScript(ctx, sc))

	require.NoError(t, st.DeleteUser(ctx, u.ID))

	_, err := st.UserByID(ctx, u.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = st.ScriptByID(ctx, sc.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, st.DeleteUser(ctx, u.ID), storage.ErrNotFound)
}

func TestIntegration_Users_ContextCanceled(t *testing.T) {
	st := startPostgres(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, context.Canceled)
}
