package script

// EvalBool evaluates a condition. Each leading ! negates the result; what
// remains is false if it is empty or "0", and true otherwise.
func EvalBool(cond string) bool {
	negate := false
	for len(cond) > 0 && cond[0] == '!' {
		negate = !negate
		cond = cond[1:]
	}
	return (cond != "" && cond != "0") != negate
}
