package algorithm

// Func adapts a plain function to Algorithm.
type Func func(available []string, values []ShardingValue) ([]string, error)

type FuncAlgorithm struct {
	Name string
	Fn   Func
}

var _ Algorithm = &FuncAlgorithm{}

func (f *FuncAlgorithm) Type() string {
	return f.Name
}

// DoSharding returns the function's result and error untouched.
func (f *FuncAlgorithm) DoSharding(available []string, values []ShardingValue) ([]string, error) {
	return f.Fn(available, values)
}
