package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type article struct {
	ID    uint `gorm:"primaryKey"`
	Title string
}

func paginateDB(t *testing.T, rows int) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&article{}))
	for i := 1; i <= rows; i++ {
		require.NoError(t, db.Create(&article{Title: fmt.Sprintf("a%d", i)}).Error)
	}
	return db
}

func TestPaginateFirstPage(t *testing.T) {
	db := paginateDB(t, 25)

	var rows []article
	page, err := Paginate(db.Model(&article{}).Order("id ASC"), "", 10, &rows)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 3, page.TotalPages)
	assert.EqualValues(t, 25, page.TotalItems)
	assert.False(t, page.HasPrev)
	assert.True(t, page.HasNext)
	require.Len(t, rows, 10)
	assert.Equal(t, "a1", rows[0].Title)
}

func TestPaginateLastPageIsShort(t *testing.T) {
	db := paginateDB(t, 25)

	var rows []article
	page, err := Paginate(db.Model(&article{}).Order("id ASC"), "3", 10, &rows)
	require.NoError(t, err)

	assert.Equal(t, 3, page.Number)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)
	require.Len(t, rows, 5)
	assert.Equal(t, "a21", rows[0].Title)
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	db := paginateDB(t, 25)

	var rows []article
	page, err := Paginate(db.Model(&article{}).Order("id ASC"), "999", 10, &rows)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Number)
	require.Len(t, rows, 5)

	page, err = Paginate(db.Model(&article{}).Order("id ASC"), "-4", 10, &rows)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)

	page, err = Paginate(db.Model(&article{}).Order("id ASC"), "abc", 10, &rows)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
}

func TestPaginateEmptyTableHasOnePage(t *testing.T) {
	db := paginateDB(t, 0)

	var rows []article
	page, err := Paginate(db.Model(&article{}), "1", 10, &rows)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.TotalPages)
	assert.EqualValues(t, 0, page.TotalItems)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
	assert.Empty(t, rows)
}
