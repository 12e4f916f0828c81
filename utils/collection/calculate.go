package collection

type Number interface {
	int | int32 | int64 | float32 | float64
}

func SumBy[T any, N Number](s []T, valueSelector func(T) N) N {
	var result N
	for _, item := range s {
		value := valueSelector(item)
		result += value
	}
	return result
}

func MinBy[T any, N Number](s []T, valueSelector func(T) N) (N, bool) {
	var result N
	if len(s) == 0 {
		return result, false
	}
	result = valueSelector(s[0])
	for _, item := range s[1:] {
		if value := valueSelector(item); value < result {
			result = value
		}
	}
	return result, true
}

func MaxBy[T any, N Number](s []T, valueSelector func(T) N) (N, bool) {
	var result N
	if len(s) == 0 {
		return result, false
	}
	result = valueSelector(s[0])
	for _, item := range s[1:] {
		if value := valueSelector(item); value > result {
			result = value
		}
	}
	return result, true
}
