package gathering

// OrchestratorState is the top-level state of a gathering orchestrator
type OrchestratorState string

const (
	StateIdle      OrchestratorState = "IDLE"
	StateReady     OrchestratorState = "READY"
	StateRunning   OrchestratorState = "RUNNING"
	StateCompleted OrchestratorState = "COMPLETED"
	StateError     OrchestratorState = "ERROR"
)

// Mode is how the orchestrator drives the engine for the current task
type Mode string

const (
	// ModeListDriven injects the target list and lets the engine work through it
	ModeListDriven Mode = "LIST_DRIVEN"

	// ModeCommandOnly periodically re-issues hint commands instead of using the list
	ModeCommandOnly Mode = "COMMAND_ONLY"
)
