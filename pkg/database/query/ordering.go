package query

// Ordering is the direction results are sorted by id
type Ordering uint

const (
	Ascending Ordering = iota
	Descending
)

func (o Ordering) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	}
	return "unknown"
}
