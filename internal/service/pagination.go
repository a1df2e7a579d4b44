package service

import (
	"fmt"
	"math"
)

const (
	DefaultLimit int64 = 10
	MaxLimit     int64 = 100
)

// Pagination selects a window of a listing.
type Pagination struct {
	Limit  int64
	Offset int64
}

func (p Pagination) Validate() error {
	if p.Limit < 1 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxLimit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
	}
	// next is offset+limit and must stay representable.
	if p.Offset > math.MaxInt64-p.Limit {
		return fmt.Errorf("%w: offset is too large", ErrInvalidInput)
	}
	return nil
}

// PageInfo links to the neighbouring windows. Limit echoes the requested
// limit, not the number of returned items.
type PageInfo struct {
	Next     int64 `json:"next"`
	Limit    int64 `json:"limit"`
	Previous int64 `json:"previous"`
}

type PageDto[T any] struct {
	Data []T      `json:"data"`
	Page PageInfo `json:"page"`
}

func newPage[T any](data []T, p Pagination) *PageDto[T] {
	if data == nil {
		data = make([]T, 0)
	}
	return &PageDto[T]{
		Data: data,
		Page: PageInfo{
			Next:     p.Offset + p.Limit,
			Limit:    p.Limit,
			Previous: max(0, p.Offset-p.Limit),
		},
	}
}
