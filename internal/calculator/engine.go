package calculator

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Operation is the aggregation applied to a list of numbers.
type Operation string

const (
	OpSum      Operation = "SUM"
	OpAvg      Operation = "AVG"
	OpMax      Operation = "MAX"
	OpMin      Operation = "MIN"
	OpMultiply Operation = "MULTIPLY"
	OpMod      Operation = "MOD"
)

// Operations lists every supported operation.
var Operations = []Operation{OpSum, OpAvg, OpMax, OpMin, OpMultiply, OpMod}

var (
	ErrEmptyInput           = errors.New("empty input: provide at least one number")
	ErrInsufficientOperands = errors.New("insufficient operands: modulo needs at least 2 numbers")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrUnknownOperation     = errors.New("unknown operation")
	ErrInvalidNumber        = errors.New("invalid numeric input")
	ErrNonFiniteResult      = errors.New("result is not a finite number")
)

// ParseOperation normalises a raw tag ("sum", " Avg ") to an Operation.
func ParseOperation(raw string) (Operation, error) {
	op := Operation(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Operations {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, raw)
}

// Compute applies op to numbers. It has no side effects.
func Compute(op Operation, numbers []float64) (float64, error) {
	if len(numbers) == 0 {
		return 0, ErrEmptyInput
	}
	for i, n := range numbers {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w at index %d", ErrInvalidNumber, i)
		}
	}

	var (
		result float64
		err    error
	)
	switch op {
	case OpSum:
		result = sum(numbers)
	case OpAvg:
		result = sum(numbers) / float64(len(numbers))
	case OpMax:
		result = numbers[0]
		for _, n := range numbers[1:] {
			result = math.Max(result, n)
		}
	case OpMin:
		result = numbers[0]
		for _, n := range numbers[1:] {
			result = math.Min(result, n)
		}
	case OpMultiply:
		result = 1
		for _, n := range numbers {
			result *= n
		}
	case OpMod:
		result, err = modReduce(numbers)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, string(op))
	}
	if err != nil {
		return 0, err
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, ErrNonFiniteResult
	}
	return result, nil
}

func sum(numbers []float64) float64 {
	var total float64
	for _, n := range numbers {
		total += n
	}
	return total
}

// modReduce folds numbers left to right: ((n0 mod n1) mod n2) ...
func modReduce(numbers []float64) (float64, error) {
	if len(numbers) < 2 {
		return 0, ErrInsufficientOperands
	}

	result := numbers[0]
	for i, n := range numbers[1:] {
		if n == 0 {
			return 0, fmt.Errorf("%w at index %d", ErrDivisionByZero, i+1)
		}
		result = floorMod(result, n)
	}
	return result, nil
}

// floorMod returns a mod b with the sign of b.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r == 0 {
		return 0
	}
	if (r < 0) != (b < 0) {
		r += b
	}
	return r
}
