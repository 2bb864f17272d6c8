package interpreter

// Control-flow signals travel as returned errors. return pushes its values
// before signaling, so none of the signals carry a payload.

type returnSignal struct{}

func (returnSignal) Error() string { return "return" }

type breakSignal struct{}

func (breakSignal) Error() string { return "break" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue" }

func isSignal(err error) bool {
	switch err.(type) {
	case returnSignal, breakSignal, continueSignal:
		return true
	}
	return false
}

func isLoopSignal(err error) bool {
	switch err.(type) {
	case breakSignal, continueSignal:
		return true
	}
	return false
}
