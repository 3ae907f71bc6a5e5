// Package httpapi implements the repositories over the backend REST API.
package httpapi

import (
	"net/url"
	"strconv"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/repository"
)

func itemQuery(filter repository.ItemFilter, withAvailability bool) url.Values {
	q := url.Values{}
	if filter.Category != "" && filter.Category != domain.CategoryAll {
		q.Set("category", filter.Category)
	}
	if withAvailability {
		q.Set("available_only", strconv.FormatBool(filter.AvailableOnly))
	} else if filter.IncludeUnavailable {
		q.Set("available_only", "false")
	}
	paginate(q, filter.Skip, filter.Limit)
	return q
}

func orderQuery(filter repository.OrderFilter) url.Values {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status_filter", string(filter.Status))
	}
	paginate(q, filter.Skip, filter.Limit)
	return q
}

func paginate(q url.Values, skip, limit int) {
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
}
