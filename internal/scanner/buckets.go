package scanner

// sizeIndex groups discovered files by exact byte size. Bucket order is the
// order in which each size was first seen.
type sizeIndex struct {
	order   []int64
	buckets map[int64][]FileRecord
	count   int
}

func newSizeIndex() *sizeIndex {
	return &sizeIndex{
		buckets: make(map[int64][]FileRecord),
	}
}

func (idx *sizeIndex) Add(record FileRecord) {
	if _, ok := idx.buckets[record.Size]; !ok {
		idx.order = append(idx.order, record.Size)
	}
	idx.buckets[record.Size] = append(idx.buckets[record.Size], record)
	idx.count++
}

// Len returns the number of indexed files
func (idx *sizeIndex) Len() int {
	return idx.count
}

// Candidates returns buckets with at least two members; a file with a
// unique size cannot have a duplicate
func (idx *sizeIndex) Candidates() [][]FileRecord {
	var candidates [][]FileRecord
	for _, size := range idx.order {
		if bucket := idx.buckets[size]; len(bucket) > 1 {
			candidates = append(candidates, bucket)
		}
	}
	return candidates
}

// hashOutcome pairs a bucket member with its digest or hashing error
type hashOutcome struct {
	digest string
	err    error
}

// groupByDigest folds a hashed size bucket into duplicate groups. outcomes
// is index-aligned with bucket. Failed files are dropped, and a digest left
// with a single member yields no group.
func groupByDigest(bucket []FileRecord, outcomes []hashOutcome) []DuplicateGroup {
	var order []string
	byDigest := make(map[string][]FileRecord)

	for i, record := range bucket {
		out := outcomes[i]
		if out.err != nil || out.digest == "" {
			continue
		}
		if _, ok := byDigest[out.digest]; !ok {
			order = append(order, out.digest)
		}
		byDigest[out.digest] = append(byDigest[out.digest], record)
	}

	var groups []DuplicateGroup
	for _, digest := range order {
		files := byDigest[digest]
		if len(files) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{
			Size:   files[0].Size,
			Digest: digest,
			Files:  files,
		})
	}
	return groups
}
