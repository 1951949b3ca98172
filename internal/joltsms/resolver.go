package joltsms

import (
	"context"
)

// NumberLister is the listing capability the resolver needs.
type NumberLister interface {
	ListNumbers(ctx context.Context, params ListNumbersParams) (*ListResponse[Number], error)
}

// Resolver maps caller-supplied number references to API identifiers by
// walking the paginated listing of owned numbers.
type Resolver struct {
	lister   NumberLister
	pageSize int
}

// NewResolver creates a Resolver that pages through lister.
func NewResolver(lister NumberLister) *Resolver {
	return &Resolver{
		lister:   lister,
		pageSize: DefaultPageSize,
	}
}

// ResolveNumberID returns the number ID for input. Opaque identifiers are
// returned unchanged without calling the API; anything else is normalised
// to E.164 and matched against every page of owned numbers.
func (r *Resolver) ResolveNumberID(ctx context.Context, input string) (string, error) {
	if IsOpaqueID(input) {
		return input, nil
	}

	e164, err := NormalizePhone(input)
	if err != nil {
		return "", err
	}

	n, err := r.find(ctx, func(n Number) bool { return n.PhoneNumber == e164 })
	if err != nil {
		return "", err
	}
	if n == nil {
		return "", &NumberNotFoundError{Input: input}
	}
	return n.ID, nil
}

// FindNumber returns the owned number with the given ID, paging until found.
func (r *Resolver) FindNumber(ctx context.Context, numberID string) (*Number, error) {
	n, err := r.find(ctx, func(n Number) bool { return n.ID == numberID })
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, &NumberNotFoundError{Input: numberID}
	}
	return n, nil
}

// find stops at the first match, or when the listing reports no further pages.
func (r *Resolver) find(ctx context.Context, match func(Number) bool) (*Number, error) {
	cursor := ""
	for {
		page, err := r.lister.ListNumbers(ctx, ListNumbersParams{Limit: r.pageSize, Cursor: cursor})
		if err != nil {
			return nil, err
		}
		for i := range page.Data {
			if match(page.Data[i]) {
				return &page.Data[i], nil
			}
		}

		cursor = page.Cursor()
		if cursor == "" {
			return nil, nil
		}
	}
}
