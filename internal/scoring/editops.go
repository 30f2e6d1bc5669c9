package scoring

// OpKind is the type of a single edit operation.
type OpKind int

const (
	OpReplace OpKind = iota
	OpInsert
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpReplace:
		return "replace"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// EditOp transforms source into destination. SourcePos and DestPos index the
// source and destination sequences at the point the operation applies.
type EditOp struct {
	Kind      OpKind
	SourcePos int
	DestPos   int
}

// EditOps returns a minimal sequence of edit operations turning src into dst,
// ordered by position. Among equal-cost paths the choice matches
// python-Levenshtein's editops.
func EditOps(src, dst []string) []EditOp {
	prefix := 0
	for prefix < len(src) && prefix < len(dst) && src[prefix] == dst[prefix] {
		prefix++
	}
	a, b := src[prefix:], dst[prefix:]
	for len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[len(b)-1] {
		a, b = a[:len(a)-1], b[:len(b)-1]
	}

	rows, cols := len(a)+1, len(b)+1
	m := make([][]int, rows)
	for i := range m {
		m[i] = make([]int, cols)
		m[i][0] = i
	}
	for j := 0; j < cols; j++ {
		m[0][j] = j
	}
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			m[i][j] = min(m[i-1][j]+1, m[i][j-1]+1, m[i-1][j-1]+cost)
		}
	}

	var ops []EditOp
	emit := func(kind OpKind, i, j int) {
		ops = append(ops, EditOp{Kind: kind, SourcePos: i + prefix, DestPos: j + prefix})
	}
	// Walking back from the end, a deletion wins over an insertion, which
	// wins over the diagonal. This is the order python-Levenshtein (rapidfuzz)
	// uses, and it decides which pairs become substitutions.
	i, j := len(a), len(b)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && m[i][j] == m[i-1][j]+1:
			i--
			emit(OpDelete, i, j)
		case j > 0 && m[i][j] == m[i][j-1]+1:
			j--
			emit(OpInsert, i, j)
		default:
			i--
			j--
			if a[i] != b[j] {
				emit(OpReplace, i, j)
			}
		}
	}
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

// Distance is the Levenshtein distance between src and dst.
func Distance(src, dst []string) int {
	return len(EditOps(src, dst))
}
