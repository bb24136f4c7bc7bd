package party

// Batch accumulates rows for one run, per dataset, in insertion order.
// It is owned by the caller and never shared across runs. Rows are append-only:
// nothing mutates a row once it has been appended. The zero value is ready to use.
type Batch struct {
	rows map[Dataset][]Row

	Documents          int
	Parties            int
	MissingIdentifiers int
	Skipped            int
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{rows: make(map[Dataset][]Row)}
}

// Append adds r to the end of dataset d.
func (b *Batch) Append(d Dataset, r Row) {
	if b.rows == nil {
		b.rows = make(map[Dataset][]Row)
	}
	b.rows[d] = append(b.rows[d], r)
}

// Rows returns the rows of d in insertion order.
func (b *Batch) Rows(d Dataset) []Row {
	return b.rows[d]
}

// Len returns the number of rows accumulated for d.
func (b *Batch) Len(d Dataset) int {
	return len(b.rows[d])
}

// Total returns the number of rows across all datasets.
func (b *Batch) Total() int {
	n := 0
	for _, rows := range b.rows {
		n += len(rows)
	}
	return n
}

// NonEmpty returns the datasets holding at least one row, in output order.
func (b *Batch) NonEmpty() []Dataset {
	var out []Dataset
	for _, d := range Datasets {
		if len(b.rows[d]) > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Merge appends every row of o after the rows already in b and adds its counters.
func (b *Batch) Merge(o *Batch) {
	if o == nil {
		return
	}
	for _, d := range Datasets {
		for _, r := range o.rows[d] {
			b.Append(d, r)
		}
	}
	b.Documents += o.Documents
	b.Parties += o.Parties
	b.MissingIdentifiers += o.MissingIdentifiers
	b.Skipped += o.Skipped
}
