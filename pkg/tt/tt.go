// Package tt supports table-driven tests with little boilerplate.
//
// See the test case for this package for example usage.
package tt

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Table represents a test table.
type Table []*Case

// Case represents a test case. It is created by the Args function, and offers
// setters that augment and return itself; those calls can be chained like
// Args(...).Rets(...).
type Case struct {
	args []any
	rets []any
}

// Args returns a new Case with the given arguments.
func Args(args ...any) *Case {
	return &Case{args: args}
}

// Rets modifies the test case so that it requires the return values to match
// the given values, and returns the receiver. Return values are compared with
// cmp.Diff; errors are compared by message, so that wrapped errors
// can be spelled out in tables.
func (c *Case) Rets(rets ...any) *Case {
	c.rets = rets
	return c
}

// FnToTest describes a function to test.
type FnToTest struct {
	name string
	body any
}

// Fn makes a new FnToTest with the given function name and body.
func Fn(name string, body any) *FnToTest {
	return &FnToTest{name, body}
}

// T is the interface for accessing testing.T.
type T interface {
	Helper()
	Errorf(format string, args ...any)
}

// Return values are often unexported types from the package under test.
var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// Errors are compared by their messages.
type errorMessage string

func normalize(values []any) []any {
	normalized := make([]any, len(values))
	for i, v := range values {
		if err, ok := v.(error); ok {
			normalized[i] = errorMessage(err.Error())
		} else {
			normalized[i] = v
		}
	}
	return normalized
}

// Test tests a function against test cases.
func Test(t T, fn *FnToTest, tests Table) {
	t.Helper()
	for _, test := range tests {
		rets := call(fn.body, test.args)
		if diff := cmp.Diff(normalize(test.rets), normalize(rets), exportAll); diff != "" {
			t.Errorf("%s(%s) returns (-want +got):\n%s",
				fn.name, sprintArgs(test.args), diff)
		}
	}
}

func sprintArgs(args []any) string {
	strs := make([]string, len(args))
	for i, arg := range args {
		strs[i] = fmt.Sprintf("%q", arg)
		if _, ok := arg.(string); !ok {
			strs[i] = fmt.Sprint(arg)
		}
	}
	return strings.Join(strs, ", ")
}

func call(fn any, args []any) []any {
	fnValue := reflect.ValueOf(fn)
	argsReflect := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			// reflect.ValueOf(nil) returns a zero Value; use a zero value of
			// the parameter type instead.
			argsReflect[i] = reflect.Zero(fnValue.Type().In(i))
		} else {
			argsReflect[i] = reflect.ValueOf(arg)
		}
	}
	retsReflect := fnValue.Call(argsReflect)
	rets := make([]any, len(retsReflect))
	for i, retReflect := range retsReflect {
		rets[i] = retReflect.Interface()
	}
	return rets
}
