package payload

// Chunk splits records into batches of at most maxRecords records and maxBytes
// bytes. A single record larger than maxBytes gets a batch of its own. Non-positive
// limits fall back to the service limits.
func Chunk(records [][]byte, maxRecords, maxBytes int) [][][]byte {
	if maxRecords <= 0 || maxRecords > MaxBatchRecords {
		maxRecords = MaxBatchRecords
	}
	if maxBytes <= 0 || maxBytes > MaxBatchBytes {
		maxBytes = MaxBatchBytes
	}

	var batches [][][]byte
	var cur [][]byte
	size := 0
	for _, r := range records {
		if len(cur) > 0 && (len(cur) == maxRecords || size+len(r) > maxBytes) {
			batches = append(batches, cur)
			cur, size = nil, 0
		}
		cur = append(cur, r)
		size += len(r)
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// Size returns the total byte size of records.
func Size(records [][]byte) int64 {
	var n int64
	for _, r := range records {
		n += int64(len(r))
	}
	return n
}
