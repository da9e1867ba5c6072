package process

// ProcessState represents the scheduler state of a process as reported by the OS
type ProcessState string

const (
	ProcessRunning  ProcessState = "R" // Running
	ProcessSleeping ProcessState = "S" // Sleeping in an interruptible wait
	ProcessWaiting  ProcessState = "D" // Waiting in uninterruptible disk sleep
	ProcessZombie   ProcessState = "Z" // Zombie
	ProcessStopped  ProcessState = "T" // Stopped (on a signal)
	ProcessDead     ProcessState = "X" // Dead
)

// IsTerminated reports whether the state belongs to a process that has exited.
func (s ProcessState) IsTerminated() bool {
	return s == ProcessZombie || s == ProcessDead
}
