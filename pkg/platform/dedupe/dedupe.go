// Package dedupe collects unique keys from slices.
package dedupe

// Keys returns the distinct keys of items in first-seen order. Items for which
// key reports false are skipped. The result is never nil.
//
// Example:
//
//	Keys(apps, func(a *Application) (JobID, bool) { return a.JobID, true })
func Keys[T any, K comparable](items []T, key func(T) (K, bool)) []K {
	seen := make(map[K]struct{}, len(items))
	result := make([]K, 0, len(items))

	for _, item := range items {
		k, ok := key(item)
		if !ok {
			continue
		}
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			result = append(result, k)
		}
	}

	return result
}
