package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}))
	return db
}

func TestGroupSlugGeneratedFromTitle(t *testing.T) {
	db := testDB(t)

	group := Group{Title: "Весёлые Котики", Description: "про котиков"}
	require.NoError(t, db.Create(&group).Error)
	assert.NotEmpty(t, group.Slug)

	explicit := Group{Title: "Другая группа", Slug: "custom-slug"}
	require.NoError(t, db.Create(&explicit).Error)
	assert.Equal(t, "custom-slug", explicit.Slug)
}

func TestGroupSlugUnique(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.Create(&Group{Title: "Первая", Slug: "same"}).Error)
	err := db.Create(&Group{Title: "Вторая", Slug: "same"}).Error
	assert.Error(t, err)
}

func TestPostPubDateStampedOnCreate(t *testing.T) {
	db := testDB(t)
	user := User{Username: "author"}
	require.NoError(t, db.Create(&user).Error)

	post := Post{Text: "текст", AuthorID: user.ID}
	require.NoError(t, db.Create(&post).Error)
	assert.False(t, post.PubDate.IsZero())

	explicit := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	dated := Post{Text: "текст", AuthorID: user.ID, PubDate: explicit}
	require.NoError(t, db.Create(&dated).Error)
	assert.True(t, dated.PubDate.Equal(explicit))
}

func TestCommentCreatedStamped(t *testing.T) {
	db := testDB(t)
	user := User{Username: "author"}
	require.NoError(t, db.Create(&user).Error)
	post := Post{Text: "текст", AuthorID: user.ID}
	require.NoError(t, db.Create(&post).Error)

	comment := Comment{PostID: post.ID, AuthorID: user.ID, Text: "коммент"}
	require.NoError(t, db.Create(&comment).Error)
	assert.False(t, comment.Created.IsZero())
}

func TestFollowPairUnique(t *testing.T) {
	db := testDB(t)
	reader := User{Username: "reader"}
	author := User{Username: "author"}
	require.NoError(t, db.Create(&reader).Error)
	require.NoError(t, db.Create(&author).Error)

	require.NoError(t, db.Create(&Follow{UserID: reader.ID, AuthorID: author.ID}).Error)
	err := db.Create(&Follow{UserID: reader.ID, AuthorID: author.ID}).Error
	assert.Error(t, err)
}

func TestUsernameUnique(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.Create(&User{Username: "dup"}).Error)
	err := db.Create(&User{Username: "dup"}).Error
	assert.Error(t, err)
}
