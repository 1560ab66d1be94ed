package dispatch

// Partition splits recipients into consecutive batches of at most size
// entries. The batches share the input's backing array. A non-positive
// size is treated as DefaultBatchSize.
func Partition(recipients []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(recipients) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(recipients)+size-1)/size)
	for start := 0; start < len(recipients); start += size {
		end := min(start+size, len(recipients))
		batches = append(batches, recipients[start:end:end])
	}
	return batches
}
