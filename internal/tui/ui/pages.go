package ui

import "github.com/rivo/tview"

// Crumb is one entry of the navigation stack. Label names the thing the page
// shows, such as an instance or group, and may be empty.
type Crumb struct {
	Page  string
	Label string
}

func (c Crumb) String() string {
	if c.Label == "" {
		return c.Page
	}
	return c.Page + " " + c.Label
}

// Pages keeps a navigation stack on top of tview.Pages. Only the top entry
// is visible.
type Pages struct {
	*tview.Pages
	stack    []Crumb
	onChange func(stack []Crumb)
}

// NewPages creates an empty stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange registers fn to run after every stack change.
func (p *Pages) SetOnChange(fn func(stack []Crumb)) {
	p.onChange = fn
}

// Push shows page on top of the stack.
func (p *Pages) Push(page string) { p.PushLabeled(page, "") }

// PushLabeled shows page on top of the stack with a breadcrumb label.
func (p *Pages) PushLabeled(page, label string) {
	if top, ok := p.top(); ok {
		p.HidePage(top.Page)
	}
	p.stack = append(p.stack, Crumb{Page: page, Label: label})
	p.show(page)
}

// Pop removes the top page and returns its name, "" when the stack is empty.
func (p *Pages) Pop() string {
	top, ok := p.top()
	if !ok {
		return ""
	}
	p.HidePage(top.Page)
	p.stack = p.stack[:len(p.stack)-1]
	if next, ok := p.top(); ok {
		p.show(next.Page)
		return top.Page
	}
	p.notify()
	return top.Page
}

// PopUntil pops pages until keep returns true for the top one or a single
// page is left.
func (p *Pages) PopUntil(keep func(page string) bool) {
	for len(p.stack) > 1 && !keep(p.Current()) {
		p.Pop()
	}
}

// Relabel changes the breadcrumb label of the top page.
func (p *Pages) Relabel(label string) {
	if len(p.stack) == 0 || p.stack[len(p.stack)-1].Label == label {
		return
	}
	p.stack[len(p.stack)-1].Label = label
	p.notify()
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	top, _ := p.top()
	return top.Page
}

// Stack returns a copy of the stack, bottom first.
func (p *Pages) Stack() []Crumb {
	return append([]Crumb(nil), p.stack...)
}

// Depth returns the number of stacked pages.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// Reset replaces the stack with page alone.
func (p *Pages) Reset(page string) {
	for _, c := range p.stack {
		p.HidePage(c.Page)
	}
	p.stack = []Crumb{{Page: page}}
	p.show(page)
}

func (p *Pages) top() (Crumb, bool) {
	if len(p.stack) == 0 {
		return Crumb{}, false
	}
	return p.stack[len(p.stack)-1], true
}

func (p *Pages) show(page string) {
	p.ShowPage(page)
	p.SendToFront(page)
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
