// Package tui is the terminal dashboard. It renders the controller's state
// and snapshot and turns keys and ':' commands into controller calls.
package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/dashboard"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/notify"
	"github.com/matheus3301/wuzdash/internal/status"
	intsync "github.com/matheus3301/wuzdash/internal/sync"
	"github.com/matheus3301/wuzdash/internal/tui/keys"
	"github.com/matheus3301/wuzdash/internal/tui/ui"
	"github.com/matheus3301/wuzdash/internal/tui/views"
)

const (
	pageLogin     = "Login"
	pageInstances = "Instances"
	pageInstance  = "Instance"
	pageGroups    = "Groups"
	pageGroup     = "Group"
	pageHelp      = "Help"
	pageResult    = "Result"
)

// headerRows is the height of the header and so of each menu column.
const headerRows = 7

// Options wires the App to a running dashboard.
type Options struct {
	Controller *dashboard.Controller
	Bus        *bus.Bus
	Flash      *ui.FlashModel
	Theme      *ui.Theme
	Profile    string
	Gateway    string
	Logger     *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	ctrl     *dashboard.Controller
	bus      *bus.Bus
	flash    *ui.FlashModel
	logger   *zap.Logger
	registry *keys.Registry
	profile  string
	gateway  string

	root        *tview.Flex
	pages       *ui.Pages
	sessionInfo *ui.SessionInfo
	menu        *ui.Menu
	crumbs      *ui.Crumbs
	prompt      *ui.Prompt
	flashBar    *ui.FlashBar

	login     *views.LoginView
	instances *views.InstanceList
	instance  *views.InstanceView
	groups    *views.GroupList
	group     *views.GroupView
	help      *views.HelpView
	result    *views.ResultView
	focus     map[string]tview.Primitive

	shown status.State
	ctx   context.Context
	stop  context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(o Options) *App {
	theme := o.Theme
	if theme == nil {
		theme = ui.DefaultTheme()
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:         tview.NewApplication(),
		theme:       theme,
		ctrl:        o.Controller,
		bus:         o.Bus,
		flash:       o.Flash,
		logger:      logger,
		registry:    keys.NewRegistry(),
		profile:     o.Profile,
		gateway:     o.Gateway,
		pages:       ui.NewPages(),
		sessionInfo: ui.NewSessionInfo(theme),
		menu:        ui.NewMenu(theme, headerRows),
		crumbs:      ui.NewCrumbs(theme),
		prompt:      ui.NewPrompt(theme),
		flashBar:    ui.NewFlashBar(theme),
		login:       views.NewLoginView(theme),
		instances:   views.NewInstanceList(theme),
		instance:    views.NewInstanceView(theme),
		groups:      views.NewGroupList(theme),
		group:       views.NewGroupView(theme),
		help:        views.NewHelpView(theme, helpEntries()),
		result:      views.NewResultView(theme),
		shown:       status.Booting,
		ctx:         ctx,
		stop:        cancel,
	}
	if a.flash == nil {
		a.flash = ui.NewFlashModel()
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("help", &keys.Action{
		Key: tcell.KeyRune, Rune: '?', Description: "help", Visible: true,
		Handler: func() { a.push(pageHelp, "") },
	})
	a.registry.AddGlobal("quit", &keys.Action{
		Key: tcell.KeyCtrlC, Label: "ctrl-c", Description: "quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddGlobal("command", &keys.Action{
		Key: tcell.KeyRune, Rune: ':', Description: "command", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand, "") },
	})
	a.registry.AddGlobal("back", &keys.Action{
		Key: tcell.KeyEscape, Label: "esc", Description: "back", Visible: true,
		Handler: a.back,
	})

	// Instance list.
	a.registry.AddPage(pageInstances, "open", &keys.Action{
		Key: tcell.KeyEnter, Label: "enter", Description: "open", Visible: true,
		Handler: func() { a.execute("open", selection{instance: a.instances.SelectedID()}) },
	})
	a.registry.AddPage(pageInstances, "filter", &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "filter", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptFilter, "") },
	})
	a.addSessionKeys(pageInstances)
	for n := 1; n <= 9; n++ {
		a.registry.AddPage(pageInstances, "jump"+strconv.Itoa(n), &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n), Description: "jump", Numeric: true, Visible: n == 1,
			Label: "1-9",
			Handler: func() {
				if id := a.instances.IDByIndex(n); id != "" {
					a.execute("open", selection{instance: id})
				}
			},
		})
	}

	// Instance card.
	a.addSessionKeys(pageInstance)
	a.registry.AddPage(pageInstance, "groups", &keys.Action{
		Key: tcell.KeyRune, Rune: 'g', Description: "groups", Visible: true,
		Handler: func() { a.execute("groups", a.selection()) },
	})

	// Groups.
	a.registry.AddPage(pageGroups, "open", &keys.Action{
		Key: tcell.KeyEnter, Label: "enter", Description: "open", Visible: true,
		Handler: func() {
			if g, ok := a.groups.Selected(); ok {
				a.run(Command{Name: "group", Args: g.JID}, a.selection())
			}
		},
	})
	a.registry.AddPage(pageGroups, "filter", &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "filter", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptFilter, "") },
	})
	a.registry.AddPage(pageGroups, "refresh", &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "reload", Visible: true,
		Handler: func() { a.execute("groups", a.selection()) },
	})

	// Group detail.
	for _, b := range []struct {
		r    rune
		name string
		desc string
	}{
		{'P', gateway.ActionPromote, "promote"},
		{'D', gateway.ActionDemote, "demote"},
		{'R', gateway.ActionRemove, "remove"},
	} {
		a.registry.AddPage(pageGroup, b.name, &keys.Action{
			Key: tcell.KeyRune, Rune: b.r, Description: b.desc, Visible: true,
			Handler: func() { a.execute(b.name, a.selection()) },
		})
	}
	a.registry.AddPage(pageGroup, "add", &keys.Action{
		Key: tcell.KeyRune, Rune: 'a', Description: "add", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand, "add ") },
	})
	a.registry.AddPage(pageGroup, "invite", &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Description: "invite link", Visible: true,
		Handler: func() { a.execute("invite", a.selection()) },
	})
	a.registry.AddPage(pageGroup, "refresh", &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "reload", Visible: true,
		Handler: func() { a.run(Command{Name: "group", Args: a.group.Group().JID}, a.selection()) },
	})
}

// addSessionKeys binds the per-session actions shared by the list and card.
func (a *App) addSessionKeys(page string) {
	a.registry.AddPage(page, "connect", &keys.Action{
		Key: tcell.KeyRune, Rune: 'c', Description: "connect", Visible: true,
		Handler: func() { a.execute("connect", a.selection()) },
	})
	a.registry.AddPage(page, "disconnect", &keys.Action{
		Key: tcell.KeyRune, Rune: 'x', Description: "disconnect", Visible: true,
		Handler: func() { a.execute("disconnect", a.selection()) },
	})
	a.registry.AddPage(page, "pair", &keys.Action{
		Key: tcell.KeyRune, Rune: 'p', Description: "pair phone", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand, "pair ") },
	})
	a.registry.AddPage(page, "refresh", &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "refresh", Visible: true,
		Handler: func() { a.execute("refresh", a.selection()) },
	})
}

func (a *App) setupCallbacks() {
	a.login.SetOnSubmit(func(token string, admin bool) {
		name := "login"
		if admin {
			name = "admin"
		}
		a.login.Reset()
		a.run(Command{Name: name, Args: token}, selection{})
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptFilter {
			a.instances.SetFilter(text)
			a.groups.SetFilter(text)
			return
		}
		a.run(ParseCommand(text), a.selection())
	})
	a.prompt.SetOnCancel(a.hidePrompt)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	a.prompt.SetCommands(names)

	a.pages.SetOnChange(func(stack []ui.Crumb) {
		a.crumbs.Update(stack)
		if len(stack) > 0 {
			a.menu.Update(a.registry.Hints(stack[len(stack)-1].Page))
		}
	})
}

func (a *App) setupLayout() {
	a.focus = map[string]tview.Primitive{
		pageLogin:     a.login,
		pageInstances: a.instances,
		pageInstance:  a.instance,
		pageGroups:    a.groups,
		pageGroup:     a.group.Roster(),
		pageHelp:      a.help,
		pageResult:    a.result,
	}
	for _, c := range []ui.Component{a.login, a.instances, a.instance, a.groups, a.group, a.help, a.result} {
		a.pages.AddPage(c.Name(), c, true, false)
	}

	header := tview.NewFlex().
		AddItem(a.sessionInfo, 0, 2, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(ui.NewLogo(a.theme), 12, 0, false)

	a.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, headerRows, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.root.SetBackgroundColor(a.theme.BgColor)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.capture)
	a.pages.Reset(pageLogin)
}

func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	if a.prompt.HasFocus() {
		return ev
	}
	page := a.pages.Current()
	// Forms take every key except the ones that leave them.
	if page == pageLogin && ev.Key() != tcell.KeyCtrlC {
		return ev
	}
	if a.registry.HandleEvent(page, ev) {
		return nil
	}
	return ev
}

// selection captures the cursor. It must run on the UI goroutine.
func (a *App) selection() selection {
	sel := selection{}
	switch a.pages.Current() {
	case pageInstances:
		sel.instance = a.instances.SelectedID()
	case pageInstance:
		sel.instance = a.instance.Current().ID
	case pageGroup:
		sel.group = a.group.Group().JID
		sel.phone = a.group.SelectedPhone()
	}
	if a.shown == status.UserSession {
		sel.instance = ""
	}
	return sel
}

func (a *App) execute(name string, sel selection) {
	a.run(Command{Name: name}, sel)
}

// run dispatches cmd off the UI goroutine. Controller failures are reported
// by the controller; only input errors are flashed here.
func (a *App) run(cmd Command, sel selection) {
	if cmd.Name == "" {
		return
	}
	def, ok := commands[cmd.Name]
	if !ok {
		notify.Report.Failure(a.flash, "", &gateway.ValidationError{Message: "unknown command " + cmd.Name + ", try :help"})
		return
	}
	go func() {
		err := def.run(a.ctx, a, cmd, sel)
		if err == nil {
			return
		}
		a.logger.Debug("command failed", zap.String("command", cmd.Name), zap.Error(err))
		if gateway.IsValidation(err) {
			notify.Report.Failure(a.flash, "", err)
		}
	}()
}

func (a *App) showPrompt(mode ui.PromptMode, text string) {
	a.prompt.ActivateWith(mode, text)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt.InputField)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

func (a *App) focusCurrent() {
	if p, ok := a.focus[a.pages.Current()]; ok {
		a.app.SetFocus(p)
	}
}

// push shows page above the current one. Pushing the page on top only
// updates its label.
func (a *App) push(page, label string) {
	if a.pages.Current() != page {
		a.pages.PushLabeled(page, label)
	} else {
		a.pages.Relabel(label)
	}
	a.focusCurrent()
}

func (a *App) back() {
	switch page := a.pages.Current(); {
	case page == pageInstance && a.shown == status.AdminInstance:
		a.execute("back", selection{})
	case a.pages.Depth() > 1:
		a.pages.Pop()
		a.focusCurrent()
	default:
		a.instances.SetFilter("")
		a.groups.SetFilter("")
	}
}

// showResult displays v on the result page. Safe from any goroutine.
func (a *App) showResult(title string, v any) {
	a.app.QueueUpdateDraw(func() {
		a.result.Show(title, v)
		a.push(pageResult, title)
	})
}

func (a *App) showGroups(list []dashboard.GroupView) {
	a.groups.Update(list)
	a.pages.PopUntil(func(page string) bool {
		return page == pageInstance || page == pageInstances
	})
	a.push(pageGroups, "")
}

// openGroup fetches jid and shows its roster.
func (a *App) openGroup(ctx context.Context, jid string) error {
	v, err := a.ctrl.Group(ctx, jid)
	if err != nil {
		return err
	}
	viewer := a.ctrl.ViewerJID()
	a.app.QueueUpdateDraw(func() {
		a.group.Update(*v, viewer)
		a.push(pageGroup, views.Sanitize(v.Name))
	})
	return nil
}

// syncState moves the page stack to the root page of st.
func (a *App) syncState(st status.State) {
	if st == a.shown {
		return
	}
	a.shown = st
	switch st {
	case status.UserSession:
		a.pages.Reset(pageInstance)
		a.renderInstances()
	case status.AdminList:
		a.pages.Reset(pageInstances)
	case status.AdminInstance:
		a.pages.Reset(pageInstances)
		a.pages.PushLabeled(pageInstance, a.ctrl.CurrentInstance())
		a.renderInstances()
	default:
		a.login.Reset()
		a.pages.Reset(pageLogin)
		a.instances.Update(nil)
		a.groups.Update(nil)
	}
	a.focusCurrent()
	a.renderHeader()
}

// renderInstances pushes the snapshot into the list and the card.
func (a *App) renderInstances() {
	snap := a.ctrl.Snapshot()
	a.instances.Update(snap)
	want := a.instance.Current().ID
	switch a.shown {
	case status.UserSession:
		if len(snap) > 0 {
			a.showInstance(snap[0])
		}
		return
	case status.AdminInstance:
		want = a.ctrl.CurrentInstance()
	}
	for _, inst := range snap {
		if inst.ID == want {
			a.showInstance(inst)
			return
		}
	}
}

func (a *App) showInstance(inst gateway.Instance) {
	a.instance.Update(inst)
	if a.pages.Current() == pageInstance && inst.Name != "" {
		a.pages.Relabel(views.Sanitize(inst.Name))
	}
}

func (a *App) renderHeader() {
	a.sessionInfo.Update(&ui.SessionData{
		Profile:   a.profile,
		Gateway:   a.gateway,
		Mode:      modeText(a.shown),
		Viewer:    a.ctrl.ViewerJID(),
		Instances: len(a.ctrl.Snapshot()),
		Cadence:   a.ctrl.Cadence().Mode().String(),
		LastPoll:  a.ctrl.LastPoll(),
	})
	a.menu.Update(a.registry.Hints(a.pages.Current()))
	a.flashBar.Update(a.flash.Current())
}

func modeText(st status.State) string {
	switch st {
	case status.UserSession:
		return "user"
	case status.AdminList, status.AdminInstance:
		return "admin"
	case status.Booting:
		return "starting"
	default:
		return "logged out"
	}
}

// watch forwards bus events and flash updates into the UI goroutine.
func (a *App) watch() {
	events, unsubscribe := a.bus.Subscribe("", 64)
	defer unsubscribe()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.handleEvent(evt)
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.renderHeader)
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindStateChanged:
		change, ok := evt.Payload.(status.StatusChange)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() { a.syncState(change.To) })
	case bus.KindInstancesUpdated:
		if u, ok := evt.Payload.(intsync.Update); ok && !u.Changed {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.renderInstances()
			a.renderHeader()
		})
	case bus.KindInstancesCleared:
		a.app.QueueUpdateDraw(func() {
			a.instances.Update(nil)
			a.renderHeader()
		})
	case bus.KindGroupsLoaded:
		list, ok := evt.Payload.([]dashboard.GroupView)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() { a.groups.Update(list) })
	}
}

// Run starts the TUI application. It returns when the user quits.
func (a *App) Run() error {
	a.syncState(a.ctrl.State())
	a.focusCurrent()
	a.renderHeader()
	go a.watch()
	defer a.stop()
	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.stop()
	a.app.Stop()
}
