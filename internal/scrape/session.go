// Package scrape acquires the raw instrument table from the portal: a live
// rendering session is driven through a fixed navigation path and the table
// is read page by page until the pagination control disappears.
package scrape

import "time"

// By selects the addressing scheme for a selector.
type By int

const (
	// ByQuery addresses elements with a CSS selector.
	ByQuery By = iota
	// ByXPath addresses elements with an XPath expression.
	ByXPath
)

// Session is the capability surface of one rendering session. It abstracts
// the automation backend so the collector can be exercised against a scripted
// fake in tests; the production implementation is ChromeSession.
//
// All operations are synchronous. The portal renders asynchronously, so
// callers must interleave Settle calls between an action and the next read.
type Session interface {
	// Navigate loads the given URL and blocks until the navigation commits.
	Navigate(url string) error

	// Click locates an element and clicks it. An error means the element
	// could not be located or was not interactable.
	Click(selector string, by By) error

	// SendKeys clears nothing and types text into the located element.
	SendKeys(selector string, by By, text string) error

	// WaitClickable blocks until the element is visible and enabled, or the
	// bounded timeout elapses. A timeout is returned as an error.
	WaitClickable(selector string, by By, timeout time.Duration) error

	// ToggleIndexed clicks the n-th element of the given class in document
	// order, scrolling it into view first. The portal's column chooser only
	// exposes its checkboxes positionally.
	ToggleIndexed(class string, index int) error

	// Markup returns the current page's rendered markup.
	Markup() (string, error)

	// Settle blocks for the given duration to let an asynchronous render
	// finish. A render slower than the settle window silently yields a short
	// page; the duration is configuration, not a constant.
	Settle(d time.Duration)
}
