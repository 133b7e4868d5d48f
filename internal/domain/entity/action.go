package entity

import "fmt"

// Action is one of the backend automation endpoints
type Action string

const (
	ActionGenerateInvoices Action = "generate-invoices"
	ActionGenerateReports  Action = "generate-reports"
	ActionSendInvoices     Action = "send-invoices"
	ActionSendReport       Action = "send-report"
)

// Actions lists every automation action in the order shown on the automation page
var Actions = []Action{
	ActionGenerateInvoices,
	ActionGenerateReports,
	ActionSendInvoices,
	ActionSendReport,
}

var actionLabels = map[Action]string{
	ActionGenerateInvoices: "Generate Invoices",
	ActionGenerateReports:  "Generate Reports",
	ActionSendInvoices:     "Send Invoices to Clients",
	ActionSendReport:       "Send Report to Managers",
}

// failure prefixes shown before the backend's message
var actionFailures = map[Action]string{
	ActionGenerateInvoices: "Error generating invoices",
	ActionGenerateReports:  "Error generating reports",
	ActionSendInvoices:     "Error sending invoices to clients",
	ActionSendReport:       "Error sending report to managers",
}

// ParseAction validates an action name
func ParseAction(name string) (Action, error) {
	a := Action(name)
	if !a.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return a, nil
}

// IsValid reports whether a is a known action
func (a Action) IsValid() bool {
	_, ok := actionLabels[a]
	return ok
}

// Path is the backend endpoint path for the action
func (a Action) Path() string {
	return "/" + string(a)
}

// Label is the button caption
func (a Action) Label() string {
	return actionLabels[a]
}

// FailureText formats the alert shown when the action fails
func (a Action) FailureText(message string) string {
	return actionFailures[a] + ": " + message
}

// String returns the action name
func (a Action) String() string {
	return string(a)
}
