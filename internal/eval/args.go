package eval

import (
	"fmt"

	"github.com/mmrzaf/dumpgen/internal/value"
)

func errNotEnoughArgs(name string) error {
	return &TypeError{Name: name, Msg: "not enough arguments"}
}

func errArgType(name string, index int, expected string, got value.Value) error {
	return &TypeError{
		Name: name,
		Msg:  fmt.Sprintf("cannot convert argument %d (%s) into %s", index+1, got, expected),
	}
}

// argValue fetches the argument at index, or the default when absent.
func argValue(name string, args []value.Value, index int, def *value.Value) (value.Value, error) {
	if index < len(args) {
		return args[index], nil
	}
	if def != nil {
		return *def, nil
	}
	return value.Null, errNotEnoughArgs(name)
}

func argNumber(name string, args []value.Value, index int) (value.Number, error) {
	v, err := argValue(name, args, index, nil)
	if err != nil {
		return value.Number{}, err
	}
	n, ok := v.Number()
	if !ok {
		return value.Number{}, errArgType(name, index, "number", v)
	}
	return n, nil
}

func argF64(name string, args []value.Value, index int) (float64, error) {
	n, err := argNumber(name, args, index)
	if err != nil {
		return 0, err
	}
	return n.Float64(), nil
}

func argI64(name string, args []value.Value, index int, def *int64) (int64, error) {
	if index >= len(args) {
		if def != nil {
			return *def, nil
		}
		return 0, errNotEnoughArgs(name)
	}
	n, ok := args[index].Number()
	if !ok {
		return 0, errArgType(name, index, "integer", args[index])
	}
	i, ok := n.Int64()
	if !ok {
		return 0, errArgType(name, index, "integer", args[index])
	}
	return i, nil
}

func argU64(name string, args []value.Value, index int) (uint64, error) {
	n, err := argNumber(name, args, index)
	if err != nil {
		return 0, err
	}
	u, ok := n.Uint64()
	if !ok {
		return 0, errArgType(name, index, "unsigned integer", args[index])
	}
	return u, nil
}

func argText(name string, args []value.Value, index int, def *string) (string, error) {
	if index >= len(args) {
		if def != nil {
			return *def, nil
		}
		return "", errNotEnoughArgs(name)
	}
	s, ok := args[index].Text()
	if !ok {
		return "", errArgType(name, index, "string", args[index])
	}
	return s, nil
}

func argBytes(name string, args []value.Value, index int) ([]byte, error) {
	v, err := argValue(name, args, index, nil)
	if err != nil {
		return nil, err
	}
	b, ok := v.StringBytes()
	if !ok {
		return nil, errArgType(name, index, "byte string", v)
	}
	return b, nil
}

func argArray(name string, args []value.Value, index int) (*value.Array, error) {
	v, err := argValue(name, args, index, nil)
	if err != nil {
		return nil, err
	}
	a, ok := v.Array()
	if !ok {
		return nil, errArgType(name, index, "array", v)
	}
	return a, nil
}
