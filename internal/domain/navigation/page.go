package navigation

import "fmt"

// Page is a navigable page of the shell, named as in the nav bar
type Page string

const (
	PageDashboard  Page = "dashboard"
	PageAutomation Page = "automation"
	PageSettings   Page = "settings"
)

// Pages lists the nav bar entries in display order
var Pages = []Page{PageDashboard, PageAutomation, PageSettings}

var pageTriggers = map[Page]Trigger{
	PageDashboard:  TriggerShowDashboard,
	PageAutomation: TriggerShowAutomation,
	PageSettings:   TriggerShowSettings,
}

var pageStates = map[Page]State{
	PageDashboard:  StateDashboard,
	PageAutomation: StateAutomation,
	PageSettings:   StateSettings,
}

// ParsePage validates a page name coming from the nav bar
func ParsePage(name string) (Page, error) {
	p := Page(name)
	if _, ok := pageTriggers[p]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPage, name)
	}
	return p, nil
}

// Trigger returns the trigger that shows this page
func (p Page) Trigger() Trigger {
	return pageTriggers[p]
}

// State returns the state reached once this page is loaded
func (p Page) State() State {
	return pageStates[p]
}
