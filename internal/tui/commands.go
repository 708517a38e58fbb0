package tui

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/media"
	"github.com/matheus3301/wuzdash/internal/tui/views"
)

// selection is what the cursor points at when a command is submitted. It is
// captured on the UI goroutine before the command runs.
type selection struct {
	instance string // instance under the cursor or on display, "" for the session's own
	group    string // group on display
	phone    string // participant under the cursor
}

func (s selection) requireGroup() (string, error) {
	if s.group == "" {
		return "", &gateway.ValidationError{Field: "group", Message: "open a group first"}
	}
	return s.group, nil
}

// phonesOr returns the phones in args, falling back to the selected participant.
func (s selection) phonesOr(args string) []string {
	if phones := splitPhones(args); len(phones) > 0 {
		return phones
	}
	if s.phone != "" {
		return []string{s.phone}
	}
	return nil
}

type commandFunc func(ctx context.Context, a *App, cmd Command, sel selection) error

type commandDef struct {
	usage string
	desc  string
	run   commandFunc
}

var commands map[string]commandDef

func init() {
	commands = map[string]commandDef{
		"login": {"login <token>", "Log in with a user token", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			return a.ctrl.LoginUser(ctx, cmd.Args)
		}},
		"admin": {"admin <token>", "Log in with the admin token", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			return a.ctrl.LoginAdmin(ctx, cmd.Args)
		}},
		"logout": {"logout", "Forget stored credentials", func(ctx context.Context, a *App, _ Command, _ selection) error {
			return a.ctrl.Logout(ctx)
		}},
		"open": {"open [id]", "Open an instance (admin)", func(ctx context.Context, a *App, cmd Command, sel selection) error {
			id := cmd.Args
			if id == "" {
				id = sel.instance
			}
			return a.ctrl.OpenInstance(ctx, id)
		}},
		"back": {"back", "Return to the instance list (admin)", func(ctx context.Context, a *App, _ Command, _ selection) error {
			return a.ctrl.BackToList(ctx)
		}},
		"refresh": {"refresh", "Poll now", func(_ context.Context, a *App, _ Command, _ selection) error {
			a.ctrl.Refresh()
			return nil
		}},
		"connect": {"connect", "Connect the session", func(ctx context.Context, a *App, _ Command, sel selection) error {
			return a.ctrl.Connect(ctx, sel.instance)
		}},
		"disconnect": {"disconnect", "Disconnect, keeping the pairing", func(ctx context.Context, a *App, _ Command, sel selection) error {
			return a.ctrl.Disconnect(ctx, sel.instance)
		}},
		"unpair": {"unpair", "Log the session out of WhatsApp", func(ctx context.Context, a *App, _ Command, sel selection) error {
			return a.ctrl.LogoutSession(ctx, sel.instance)
		}},
		"pair": {"pair <phone>", "Pair by phone number instead of QR", func(ctx context.Context, a *App, cmd Command, sel selection) error {
			code, err := a.ctrl.PairPhone(ctx, sel.instance, cmd.Args)
			if err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() { a.instance.ShowPairingCode(code) })
			return nil
		}},
		"qr": {"qr", "Fetch the pairing QR", func(ctx context.Context, a *App, _ Command, sel selection) error {
			qr, err := a.ctrl.QR(ctx, sel.instance)
			if err != nil {
				return err
			}
			text, err := media.QRDataURLText(qr)
			if err != nil {
				return err
			}
			a.showResult("QR", text)
			return nil
		}},

		"create": {"create <name> <token> [events=All] [webhook=url] [proxy=url] [s3.key=value...]", "Create an instance (admin)", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			req, err := parseCreate(cmd.Fields())
			if err != nil {
				return err
			}
			inst, err := a.ctrl.CreateInstance(ctx, req)
			if err != nil {
				return err
			}
			a.showResult("Created", inst)
			return nil
		}},
		"delete": {"delete [id]", "Delete an instance (admin)", func(ctx context.Context, a *App, cmd Command, sel selection) error {
			id := cmd.Args
			if id == "" {
				id = sel.instance
			}
			return a.ctrl.DeleteInstance(ctx, id)
		}},
		"webhook": {"webhook [url [events]]", "Show or set the webhook", func(ctx context.Context, a *App, cmd Command, sel selection) error {
			f := cmd.Fields()
			if len(f) == 0 {
				wh, err := a.ctrl.Webhook(ctx, sel.instance)
				if err != nil {
					return err
				}
				a.showResult("Webhook", wh)
				return nil
			}
			events := []string{gateway.EventAll}
			if len(f) > 1 {
				events = strings.Split(f[1], ",")
			}
			return a.ctrl.SetWebhook(ctx, sel.instance, f[0], events)
		}},
		"proxy": {"proxy [off|url]", "Show, set or disable the proxy", func(ctx context.Context, a *App, cmd Command, sel selection) error {
			switch cmd.Args {
			case "":
				p, err := a.ctrl.Proxy(ctx, sel.instance)
				if err != nil {
					return err
				}
				a.showResult("Proxy", p)
				return nil
			case "off":
				return a.ctrl.SetProxy(ctx, sel.instance, false, "")
			}
			return a.ctrl.SetProxy(ctx, sel.instance, true, cmd.Args)
		}},
		"s3": {"s3 [show|test|delete|save key=value...]", "Manage media storage", runS3},

		"send": {"send <phone> <text>", "Send a text message", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			phone, text := cmd.Head()
			_, err := a.ctrl.SendText(ctx, phone, text)
			return err
		}},
		"unsend": {"unsend <phone> <id>", "Delete a sent message", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			phone, id := cmd.Head()
			return a.ctrl.DeleteMessage(ctx, phone, id)
		}},
		"user": {"user <phone>", "Look up a WhatsApp user", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			info, err := a.ctrl.UserInfo(ctx, cmd.Args)
			if err != nil {
				return err
			}
			a.showResult("User", info)
			return nil
		}},
		"avatar": {"avatar <phone>", "Show a profile picture URL", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			av, err := a.ctrl.UserAvatar(ctx, cmd.Args)
			if err != nil {
				return err
			}
			a.showResult("Avatar", av)
			return nil
		}},
		"contacts": {"contacts", "List contacts", func(ctx context.Context, a *App, _ Command, _ selection) error {
			list, err := a.ctrl.Contacts(ctx)
			if err != nil {
				return err
			}
			a.showResult("Contacts", list)
			return nil
		}},

		"groups": {"groups", "List groups", func(ctx context.Context, a *App, _ Command, _ selection) error {
			list, err := a.ctrl.LoadGroups(ctx)
			if err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() { a.showGroups(list) })
			return nil
		}},
		"group": {"group <jid>", "Open a group", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			return a.openGroup(ctx, cmd.Args)
		}},
		"newgroup": {"newgroup <name> <phones>", "Create a group", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			name, rest := cmd.Head()
			g, err := a.ctrl.CreateGroup(ctx, name, splitPhones(rest))
			if err != nil {
				return err
			}
			return a.openGroup(ctx, g.JID)
		}},
		"join": {"join <link|code>", "Join a group by invite", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			return a.ctrl.JoinGroup(ctx, cmd.Args)
		}},
		"inviteinfo": {"inviteinfo <link|code>", "Preview an invite", func(ctx context.Context, a *App, cmd Command, _ selection) error {
			g, err := a.ctrl.InviteInfo(ctx, cmd.Args)
			if err != nil {
				return err
			}
			a.showResult("Invite", g)
			return nil
		}},
		"invite": {"invite [reset]", "Show the group invite link", func(ctx context.Context, a *App, cmd Command, sel selection) error {
			jid, err := sel.requireGroup()
			if err != nil {
				return err
			}
			link, err := a.ctrl.InviteLink(ctx, jid, cmd.Args == "reset")
			if err != nil {
				return err
			}
			a.showResult("Invite link", link)
			return nil
		}},
		"rename": {"rename <name>", "Rename the group", groupCmd(func(ctx context.Context, a *App, jid, args string) error {
			return a.ctrl.SetGroupName(ctx, jid, args)
		})},
		"topic": {"topic <text>", "Set the group description", groupCmd(func(ctx context.Context, a *App, jid, args string) error {
			return a.ctrl.SetGroupTopic(ctx, jid, args)
		})},
		"announce": {"announce on|off", "Only admins may send", groupCmd(func(ctx context.Context, a *App, jid, args string) error {
			on, err := parseToggle(args)
			if err != nil {
				return err
			}
			return a.ctrl.SetAnnounce(ctx, jid, on)
		})},
		"lock": {"lock on|off", "Only admins may edit group info", groupCmd(func(ctx context.Context, a *App, jid, args string) error {
			on, err := parseToggle(args)
			if err != nil {
				return err
			}
			return a.ctrl.SetLocked(ctx, jid, on)
		})},
		"timer": {"timer off|24h|7d|90d", "Set disappearing messages", groupCmd(func(ctx context.Context, a *App, jid, args string) error {
			secs, err := parseTimer(args)
			if err != nil {
				return err
			}
			return a.ctrl.SetDisappearing(ctx, jid, secs)
		})},
		"add":     participantCmd(gateway.ActionAdd, "Add members"),
		"remove":  participantCmd(gateway.ActionRemove, "Remove members"),
		"promote": participantCmd(gateway.ActionPromote, "Make members admins"),
		"demote":  participantCmd(gateway.ActionDemote, "Revoke admin"),
		"photo": {"photo <path>", "Set the group photo", groupCmd(func(ctx context.Context, a *App, jid, args string) error {
			data, err := os.ReadFile(args)
			if err != nil {
				return &gateway.ValidationError{Field: "image", Message: err.Error()}
			}
			return a.ctrl.SetGroupPhoto(ctx, jid, data)
		})},
		"rmphoto": {"rmphoto", "Remove the group photo", groupCmd(func(ctx context.Context, a *App, jid, _ string) error {
			return a.ctrl.RemoveGroupPhoto(ctx, jid)
		})},
		"leave": {"leave", "Leave the group", groupCmd(func(ctx context.Context, a *App, jid, _ string) error {
			if err := a.ctrl.LeaveGroup(ctx, jid); err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() {
				if a.pages.Current() == pageGroup {
					a.pages.Pop()
				}
			})
			return nil
		})},

		"help": {"help", "Show keys and commands", func(_ context.Context, a *App, _ Command, _ selection) error {
			a.app.QueueUpdateDraw(func() { a.push(pageHelp, "") })
			return nil
		}},
		"quit": {"quit", "Exit", func(_ context.Context, a *App, _ Command, _ selection) error {
			a.app.Stop()
			return nil
		}},
	}
	commands["q"] = commands["quit"]
}

// groupCmd runs fn against the group on display.
func groupCmd(fn func(ctx context.Context, a *App, jid, args string) error) commandFunc {
	return func(ctx context.Context, a *App, cmd Command, sel selection) error {
		jid, err := sel.requireGroup()
		if err != nil {
			return err
		}
		if err := fn(ctx, a, jid, cmd.Args); err != nil {
			return err
		}
		return a.openGroup(ctx, jid)
	}
}

func participantCmd(action, desc string) commandDef {
	return commandDef{
		usage: action + " [phones]",
		desc:  desc,
		run: func(ctx context.Context, a *App, cmd Command, sel selection) error {
			jid, err := sel.requireGroup()
			if err != nil {
				return err
			}
			if err := a.ctrl.UpdateParticipants(ctx, jid, action, sel.phonesOr(cmd.Args)); err != nil {
				return err
			}
			return a.openGroup(ctx, jid)
		},
	}
}

func runS3(ctx context.Context, a *App, cmd Command, sel selection) error {
	sub, rest := cmd.Head()
	switch sub {
	case "", "show":
		cfg, err := a.ctrl.S3Config(ctx, sel.instance)
		if err != nil {
			return err
		}
		a.showResult("S3", cfg)
		return nil
	case "test":
		return a.ctrl.TestS3(ctx, sel.instance)
	case "delete":
		return a.ctrl.DeleteS3Config(ctx, sel.instance)
	case "save":
		opts, err := parseOptions(strings.Fields(rest))
		if err != nil {
			return err
		}
		s := gateway.S3Settings{Enabled: true}
		if err := applyS3(opts, &s, ""); err != nil {
			return err
		}
		return a.ctrl.SaveS3Config(ctx, sel.instance, s)
	}
	return usageError(commands["s3"].usage)
}

// helpEntries lists the commands sorted by name for the help page.
func helpEntries() []views.HelpEntry {
	names := make([]string, 0, len(commands))
	for name := range commands {
		if name != "q" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]views.HelpEntry, 0, len(names))
	for _, name := range names {
		out = append(out, views.HelpEntry{Usage: ":" + commands[name].usage, Description: commands[name].desc})
	}
	return out
}
