package model

// WorkflowType tells whether a workflow ran on the platform's own CI or on an external system.
type WorkflowType string

const (
	WorkflowTypePlatform WorkflowType = "platform"
	WorkflowTypeExternal WorkflowType = "external"
)

// WorkflowStatus is the status vocabulary shared by workflow lifecycle events.
type WorkflowStatus string

const (
	WorkflowStatusPending WorkflowStatus = "pending"
	WorkflowStatusSuccess WorkflowStatus = "success"
	WorkflowStatusFailure WorkflowStatus = "failure"
)

func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusSuccess || s == WorkflowStatusFailure
}
