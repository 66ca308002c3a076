package sim

// An Action is an invocable callback with a captured argument. The zero
// value is a no-op.
type Action struct {
	Func func(arg any)
	Arg  any
}

// MakeAction creates an Action that invokes f with arg.
func MakeAction(f func(arg any), arg any) Action {
	return Action{Func: f, Arg: arg}
}

// Invoke runs the callback with the captured argument.
func (a Action) Invoke() {
	if a.Func != nil {
		a.Func(a.Arg)
	}
}
