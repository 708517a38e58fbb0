package ui

import (
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates the type of prompt (command or filter).
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

// Prompt is a command/filter input bar.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	commands []string
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := strings.TrimSpace(p.GetText())
			if p.onSubmit != nil && (text != "" || p.mode == PromptFilter) {
				p.onSubmit(p.mode, text)
			}
			p.SetText("")
		case tcell.KeyEscape:
			p.SetText("")
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})

	input.SetAutocompleteFunc(p.complete)
	input.SetAutocompleteStyles(theme.BgColor,
		tcell.StyleDefault.Foreground(theme.FgColor).Background(theme.BgColor),
		tcell.StyleDefault.Foreground(theme.TableCursorFg).Background(theme.TableCursorBg))

	return p
}

// SetCommands sets the names offered while typing the first word of a
// command.
func (p *Prompt) SetCommands(names []string) {
	p.commands = append([]string(nil), names...)
	sort.Strings(p.commands)
}

func (p *Prompt) complete(text string) []string {
	if p.mode != PromptCommand || text == "" || strings.ContainsAny(text, " \t") {
		return nil
	}
	var out []string
	for _, name := range p.commands {
		if strings.HasPrefix(name, strings.ToLower(text)) && name != text {
			out = append(out, name+" ")
		}
	}
	return out
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback when the prompt is cancelled.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate shows the prompt in the specified mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.ActivateWith(mode, "")
}

// ActivateWith shows the prompt prefilled with text, e.g. "pair " for a
// command that still needs its argument.
func (p *Prompt) ActivateWith(mode PromptMode, text string) {
	p.mode = mode
	p.SetText(text)
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter ")
	}
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
