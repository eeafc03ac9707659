package utils

// SplitIntoBatches cuts items into consecutive slices of at most batchSize elements.
func SplitIntoBatches(items []string, batchSize int) [][]string {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		return [][]string{items}
	}
	batches := make([][]string, 0, (len(items)+batchSize-1)/batchSize)
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// NormalizeLimit applies defaultLimit to unset values and caps the rest at maxLimit.
func NormalizeLimit(limit int, defaultLimit int, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
