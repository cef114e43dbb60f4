package qdrant

import (
	"fmt"
	"sort"
	"strings"
)

const (
	filterOpAnd = "$and"
	filterOpIn  = "$in"
	filterOpEq  = "$eq"
)

type translatedFilter struct {
	Must []any
}

func (f translatedFilter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	return out
}

func mergeTranslatedFilters(dst *translatedFilter, src translatedFilter) {
	if dst == nil {
		return
	}
	dst.Must = append(dst.Must, src.Must...)
}

// translateFilterMap converts the caller-facing filter shape (scalar equality,
// $eq/$in per field, top-level $and) into Qdrant's must-condition list.
// Anything else is rejected with OperationErrorUnsupportedFilter.
func translateFilterMap(filter map[string]any) (translatedFilter, error) {
	out := translatedFilter{}
	if len(filter) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := filter[key]
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}

		if strings.HasPrefix(k, "$") {
			if strings.ToLower(k) != filterOpAnd {
				return translatedFilter{}, opErr(
					"filter_translate",
					OperationErrorUnsupportedFilter,
					fmt.Sprintf("unsupported operator %q", k),
					nil,
				)
			}
			items, err := toObjectSlice(value)
			if err != nil {
				return translatedFilter{}, opErr(
					"filter_translate",
					OperationErrorValidation,
					fmt.Sprintf("operator %s expects array of objects", filterOpAnd),
					err,
				)
			}
			for _, item := range items {
				sub, err := translateFilterMap(item)
				if err != nil {
					return translatedFilter{}, err
				}
				mergeTranslatedFilters(&out, sub)
			}
			continue
		}

		cond, err := translateFieldCondition(k, value)
		if err != nil {
			return translatedFilter{}, err
		}
		out.Must = append(out.Must, cond)
	}
	return out, nil
}

func translateFieldCondition(field string, value any) (map[string]any, error) {
	if nested, ok := value.(map[string]any); ok {
		if len(nested) != 1 {
			return nil, opErr(
				"filter_translate",
				OperationErrorUnsupportedFilter,
				fmt.Sprintf("field %q expects a single operator", field),
				nil,
			)
		}
		for op, operand := range nested {
			switch strings.ToLower(strings.TrimSpace(op)) {
			case filterOpEq:
				return qdrantMatchCondition(field, operand), nil
			case filterOpIn:
				values, ok := operand.([]any)
				if !ok {
					return nil, opErr(
						"filter_translate",
						OperationErrorValidation,
						fmt.Sprintf("operator %s on field %q expects an array", filterOpIn, field),
						nil,
					)
				}
				return map[string]any{
					"key":   field,
					"match": map[string]any{"any": values},
				}, nil
			default:
				return nil, opErr(
					"filter_translate",
					OperationErrorUnsupportedFilter,
					fmt.Sprintf("unsupported operator %q on field %q", op, field),
					nil,
				)
			}
		}
	}
	return qdrantMatchCondition(field, value), nil
}

func qdrantMatchCondition(field string, value any) map[string]any {
	return map[string]any{
		"key":   field,
		"match": map[string]any{"value": value},
	}
}

func toObjectSlice(value any) ([]map[string]any, error) {
	items, ok := value.([]any)
	if !ok {
		if typed, tok := value.([]map[string]any); tok {
			return typed, nil
		}
		return nil, fmt.Errorf("expected array, got %T", value)
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", item)
		}
		out = append(out, obj)
	}
	return out, nil
}
