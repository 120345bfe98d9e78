package contenthub

import "strconv"

// DefaultLimit is the page size used when a request names none.
const DefaultLimit = 20

// PageRequest is an offset/limit window.
type PageRequest struct {
	Limit  int
	Offset int
}

// Normalize applies defaults. Any positive limit is kept as given.
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ParsePageRequest reads limit and offset query values. Empty values take
// the defaults; anything else must be a non-negative integer.
func ParsePageRequest(limit, offset string) (PageRequest, error) {
	var p PageRequest
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return p, &ParamError{Param: "limit", Value: limit, Err: ErrInvalidParam}
		}
		p.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return p, &ParamError{Param: "offset", Value: offset, Err: ErrInvalidParam}
		}
		p.Offset = n
	}
	return p.Normalize(), nil
}

// PaginateEnumerated slices a fully aggregated, sorted list. total counts
// every enumerated item and hasMore is exact for that set.
func PaginateEnumerated(items []Fields, req PageRequest) Page {
	req = req.Normalize()
	total := len(items)
	start := min(req.Offset, total)
	end := min(start+req.Limit, total)

	window := make([]Fields, end-start)
	copy(window, items[start:end])
	return Page{
		Items: window,
		Pagination: Pagination{
			Total:   total,
			Limit:   req.Limit,
			Offset:  req.Offset,
			HasMore: total > req.Offset+req.Limit,
		},
	}
}

// PaginateReturned wraps a window an upstream already cut. The upstream
// cannot report a true total, so total is what came back and hasMore guesses
// that a full window means more follow.
func PaginateReturned(items []Fields, req PageRequest) Page {
	req = req.Normalize()
	if items == nil {
		items = []Fields{}
	}
	return Page{
		Items: items,
		Pagination: Pagination{
			Total:   len(items),
			Limit:   req.Limit,
			Offset:  req.Offset,
			HasMore: len(items) == req.Limit,
		},
	}
}
