package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentaproject/lenta/models"
)

func TestFollowCreatesSingleEdge(t *testing.T) {
	app := setupApp(t)
	reader := app.createUser(t, "reader")
	app.createUser(t, "bob")
	cookie := authCookie(t, reader)

	first := app.postForm("/profile/bob/follow/", nil, cookie)
	require.Equal(t, http.StatusFound, first.Code)
	assert.Equal(t, "/profile/bob/", first.Header().Get("Location"))

	// A repeated follow is absorbed without a second row.
	second := app.postForm("/profile/bob/follow/", nil, cookie)
	require.Equal(t, http.StatusFound, second.Code)

	var count int64
	app.db.Model(&models.Follow{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSelfFollowIsBlocked(t *testing.T) {
	app := setupApp(t)
	user := app.createUser(t, "narcissus")

	w := app.postForm("/profile/narcissus/follow/", nil, authCookie(t, user))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/narcissus/", w.Header().Get("Location"))

	var count int64
	app.db.Model(&models.Follow{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestUnfollowRemovesEdge(t *testing.T) {
	app := setupApp(t)
	reader := app.createUser(t, "reader")
	app.createUser(t, "bob")
	cookie := authCookie(t, reader)

	app.postForm("/profile/bob/follow/", nil, cookie)
	w := app.postForm("/profile/bob/unfollow/", nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/bob/", w.Header().Get("Location"))

	var count int64
	app.db.Model(&models.Follow{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestUnfollowAbsentEdgeIsNoOp(t *testing.T) {
	app := setupApp(t)
	reader := app.createUser(t, "reader")
	app.createUser(t, "bob")

	w := app.postForm("/profile/bob/unfollow/", nil, authCookie(t, reader))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/bob/", w.Header().Get("Location"))
}

func TestFollowUnknownAuthorIs404(t *testing.T) {
	app := setupApp(t)
	reader := app.createUser(t, "reader")

	w := app.postForm("/profile/ghost/follow/", nil, authCookie(t, reader))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnonymousFollowRedirectsToLogin(t *testing.T) {
	app := setupApp(t)
	app.createUser(t, "bob")

	w := app.postForm("/profile/bob/follow/", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/profile/bob/follow/", w.Header().Get("Location"))

	var count int64
	app.db.Model(&models.Follow{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestProfileShowsFollowState(t *testing.T) {
	app := setupApp(t)
	reader := app.createUser(t, "reader")
	app.createUser(t, "bob")
	cookie := authCookie(t, reader)

	before := app.get("/profile/bob/", cookie)
	require.Equal(t, http.StatusOK, before.Code)
	assert.Contains(t, before.Body.String(), "Подписаться")

	app.postForm("/profile/bob/follow/", nil, cookie)

	after := app.get("/profile/bob/", cookie)
	require.Equal(t, http.StatusOK, after.Code)
	assert.Contains(t, after.Body.String(), "Отписаться")
}
