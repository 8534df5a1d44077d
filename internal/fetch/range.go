package fetch

import "fmt"

// blockRange is an inclusive block range.
type blockRange struct {
	From uint64
	To   uint64
}

// splitRange cuts [from, to] into consecutive ranges of at most size blocks.
func splitRange(from, to, size uint64) ([]blockRange, error) {
	if size == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block %d is before from block %d", to, from)
	}

	ranges := make([]blockRange, 0, (to-from)/size+1)
	for start := from; ; start += size {
		end := to
		if to-start >= size {
			end = start + size - 1
		}
		ranges = append(ranges, blockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
	}
}
