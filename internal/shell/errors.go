package shell

import "fmt"

// ErrCommandExecution reports an external process that exited nonzero.
// Command and Output carry what the CLI layer needs to present the
// failure; this package never logs it.
type ErrCommandExecution struct {
	error
	Command string
	Output  string
}

func NewErrCommandExecution(err error, command, output string) ErrCommandExecution {
	return ErrCommandExecution{
		error:   fmt.Errorf("failed to run command %q: %w: %s", command, err, output),
		Command: command,
		Output:  output,
	}
}

func (e ErrCommandExecution) Unwrap() error {
	return e.error
}
