package handlers

import (
	"errors"
	"strconv"

	"ecommerce/internal/service"
)

var errInvalidPagination = errors.New("limit and offset must be integers")

// parsePaginationParams reads limit and offset, falling back to the defaults
// when absent. Range checks are left to the service.
func parsePaginationParams(limitStr, offsetStr string) (service.Pagination, error) {
	page := service.Pagination{Limit: service.DefaultLimit}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil {
			return page, errInvalidPagination
		}
		page.Limit = l
	}

	if offsetStr != "" {
		o, err := strconv.ParseInt(offsetStr, 10, 64)
		if err != nil {
			return page, errInvalidPagination
		}
		page.Offset = o
	}

	return page, nil
}
