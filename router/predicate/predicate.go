package predicate

// Span is the source text range of a node, stop inclusive.
type Span struct {
	Start int
	Stop  int
}

func (s Span) Bounds() Span {
	return s
}

// Operand is a closed set: ColumnRef, Literal, ParamMarker, NullLiteral,
// ListExpr, Subquery and ComplexExpr.
type Operand interface {
	Bounds() Span
	iOperand()
}

// Predicate is a closed set: BinaryPredicate, InPredicate, BetweenPredicate
// and NullLiteral.
type Predicate interface {
	Bounds() Span
	iPredicate()
}

type ColumnRef struct {
	Span
	// table name or alias qualifying the column, may be empty
	Owner string
	Name  string
}

type Literal struct {
	Span
	Value any
}

// ParamMarker is a positional placeholder; Index is zero based.
type ParamMarker struct {
	Span
	Index int
}

// NullLiteral is NULL, or NOT NULL when Not is set.
type NullLiteral struct {
	Span
	Not bool
}

type ListExpr struct {
	Span
	Items []Operand
}

type Subquery struct {
	Span
	Correlated bool
}

// ComplexExpr is any expression that is not representable as one value,
// e.g. order_id + 1.
type ComplexExpr struct {
	Span
	Text    string
	Columns []ColumnRef
}

func (ColumnRef) iOperand()   {}
func (Literal) iOperand()     {}
func (ParamMarker) iOperand() {}
func (NullLiteral) iOperand() {}
func (ListExpr) iOperand()    {}
func (Subquery) iOperand()    {}
func (ComplexExpr) iOperand() {}

type BinaryPredicate struct {
	Span
	Left     Operand
	Operator string
	Right    Operand
}

type InPredicate struct {
	Span
	Left Operand
	Not  bool
	List ListExpr
}

type BetweenPredicate struct {
	Span
	Left Operand
	Not  bool
	Low  Operand
	High Operand
}

func (BinaryPredicate) iPredicate()  {}
func (InPredicate) iPredicate()      {}
func (BetweenPredicate) iPredicate() {}
func (NullLiteral) iPredicate()      {}

// AndGroup is a conjunction of base predicates.
type AndGroup []Predicate

// Forest is a disjunction of AND groups.
type Forest []AndGroup

// IsSimple reports whether op is a single literal or parameter value.
func IsSimple(op Operand) bool {
	switch op.(type) {
	case Literal, ParamMarker:
		return true
	}
	return false
}
