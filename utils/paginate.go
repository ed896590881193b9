package utils

import (
	"strconv"

	"gorm.io/gorm"
)

// Page carries paginator metadata for a rendered feed page.
type Page struct {
	Number     int
	TotalPages int
	TotalItems int64
	HasPrev    bool
	HasNext    bool
	PrevNumber int
	NextNumber int
}

// Paginate counts the query, clamps the requested page number to the valid
// range and loads one page of results into dest. An absent or invalid-low
// page parameter yields the first page; an invalid-high one yields the last.
func Paginate(query *gorm.DB, pageParam string, pageSize int, dest interface{}) (Page, error) {
	if pageSize <= 0 {
		pageSize = 10
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page{}, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	number := 1
	if n, err := strconv.Atoi(pageParam); err == nil {
		number = n
	}
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	offset := (number - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Find(dest).Error; err != nil {
		return Page{}, err
	}

	return Page{
		Number:     number,
		TotalPages: totalPages,
		TotalItems: total,
		HasPrev:    number > 1,
		HasNext:    number < totalPages,
		PrevNumber: number - 1,
		NextNumber: number + 1,
	}, nil
}
