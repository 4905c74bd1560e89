package eval

import "github.com/gridform/gridform/value"

// Flatten reduces any EvalResult to a flat, row-major slice of scalar
// values: a one-element slice for Value/Error results, or every
// materialized cell for a Spilled one. Builtins use this to treat a
// single cell and a range argument uniformly.
func Flatten(r EvalResult) []value.Value {
	switch r.Kind {
	case KindValue:
		return []value.Value{r.Scalar}
	case KindError:
		return []value.Value{value.Error{K: r.ErrKind}}
	case KindSpilled:
		cells := r.Spill.AllFn()
		out := make([]value.Value, 0, len(cells))
		for _, c := range cells {
			out = append(out, c.Result.ToValue())
		}
		return out
	default:
		return nil
	}
}

// FirstError scans vs and returns the first error value found, if any.
func FirstError(vs []value.Value) (value.ErrorKind, bool) {
	for _, v := range vs {
		if k, ok := value.IsError(v); ok {
			return k, true
		}
	}
	return "", false
}
