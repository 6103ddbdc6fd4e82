package kit

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"fontier-admin/internal/domain"
)

// SortWhitelist maps an allowed sort field to its comparator.
type SortWhitelist[T any] map[string]func(a, b T) int

func parseSortSpec(spec string) (field string, asc bool, err error) {
	if spec == "" {
		return "", true, nil
	}
	parts := strings.Split(spec, ":")
	field = strings.TrimSpace(parts[0])
	dir := lo.TernaryF(len(parts) > 1,
		func() string { return strings.ToLower(strings.TrimSpace(parts[1])) },
		func() string { return "asc" },
	)
	switch dir {
	case "asc":
		asc = true
	case "desc":
		asc = false
	default:
		return "", true, BadRequest("invalid sort direction", dir)
	}
	return field, asc, nil
}

// ApplySort returns a sorted copy of items. An empty spec keeps the API order.
func ApplySort[T any](items []T, spec string, wl SortWhitelist[T]) ([]T, error) {
	field, asc, err := parseSortSpec(spec)
	if err != nil {
		return nil, err
	}
	if field == "" {
		return items, nil
	}
	less, ok := wl[field]
	if !ok {
		return nil, BadRequest("invalid sort field", field)
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return lo.Ternary(asc, less(a, b), -less(a, b))
	})
	return out, nil
}

// ByName and ByID are shared by every resource kind.
func ByName[T domain.Named](a, b T) int {
	return cmp.Compare(strings.ToLower(a.Label()), strings.ToLower(b.Label()))
}

func ByID[T domain.Identified](a, b T) int { return cmp.Compare(a.Key(), b.Key()) }
