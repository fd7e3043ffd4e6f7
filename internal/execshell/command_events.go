package execshell

// CommandEventObserver is notified around every driver process the executor launches.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is called when the process could not run to completion.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// observerChain forwards each event to every observer in order.
type observerChain []CommandEventObserver

func newObserverChain(observers []CommandEventObserver) observerChain {
	chain := make(observerChain, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			chain = append(chain, observer)
		}
	}
	return chain
}

func (chain observerChain) CommandStarted(command ShellCommand) {
	for _, observer := range chain {
		observer.CommandStarted(command)
	}
}

func (chain observerChain) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range chain {
		observer.CommandCompleted(command, result)
	}
}

func (chain observerChain) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range chain {
		observer.CommandExecutionFailed(command, failure)
	}
}
