package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/config"
	"github.com/matheus3301/wuzdash/internal/creds"
	"github.com/matheus3301/wuzdash/internal/dashboard"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/lock"
	"github.com/matheus3301/wuzdash/internal/logging"
	"github.com/matheus3301/wuzdash/internal/outbox"
	"github.com/matheus3301/wuzdash/internal/profile"
	"github.com/matheus3301/wuzdash/internal/store"
	intsync "github.com/matheus3301/wuzdash/internal/sync"
	"github.com/matheus3301/wuzdash/internal/wa"
)

// env is what every subcommand works against: the profile's store and a
// gateway client authenticated from it.
type env struct {
	name     string
	settings config.Settings
	db       *store.DB
	vault    *creds.Vault
	client   *gateway.Client
	logger   *zap.Logger
	output   string
}

func main() {
	flags := pflag.NewFlagSet("wuzctl", pflag.ContinueOnError)
	profileFlag := flags.StringP("profile", "p", "", "profile name (overrides config default)")
	output := flags.StringP("output", "o", "text", "output format: text, json or yaml")
	admin := flags.Bool("admin", false, "login: treat the token as the admin token")
	flags.Usage = func() { printUsage(flags) }
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	args := flags.Args()
	if len(args) == 0 {
		printUsage(flags)
		os.Exit(1)
	}
	switch *output {
	case "text", "json", "yaml":
	default:
		fail(fmt.Errorf("unknown output format %q", *output))
	}

	if args[0] == "profiles" {
		cmdProfiles(*output)
		return
	}

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fail(err)
	}
	if err := config.LoadDotEnv(); err != nil {
		fail(err)
	}
	settings, err := config.LoadSettings(profile.SettingsPath(name))
	if err != nil {
		fail(err)
	}

	e, err := openEnv(name, settings, *output)
	if err != nil {
		fail(err)
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		err = e.status(ctx)
	case "login":
		err = e.login(ctx, argAt(args, 1, "login <token> [--admin]"), *admin)
	case "logout":
		err = e.logout()
	case "instances":
		err = e.instances(ctx)
	case "contacts":
		err = e.contacts(ctx)
	case "groups":
		err = e.groups(ctx)
	case "send":
		if len(args) < 3 {
			fail(errors.New("usage: wuzctl send <phone> <text>"))
		}
		err = e.send(ctx, args[1], strings.Join(args[2:], " "))
	case "health":
		err = e.health(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage(flags)
		os.Exit(1)
	}
	if err != nil {
		fail(err)
	}
}

func printUsage(flags *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: wuzctl [--profile <name>] [--output text|json|yaml] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                 Show stored credentials and the poller holding the profile")
	fmt.Fprintln(os.Stderr, "  login <token>          Validate and store a user token (--admin for the admin token)")
	fmt.Fprintln(os.Stderr, "  logout                 Forget stored credentials and the cached snapshot")
	fmt.Fprintln(os.Stderr, "  instances              List gateway instances (admin)")
	fmt.Fprintln(os.Stderr, "  contacts               Export the session's contacts")
	fmt.Fprintln(os.Stderr, "  groups                 List groups with type and your role")
	fmt.Fprintln(os.Stderr, "  send <phone> <text>    Queue a text message")
	fmt.Fprintln(os.Stderr, "  health                 Query the running wuzd /healthz")
	fmt.Fprintln(os.Stderr, "  profiles               List known profiles")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, flags.FlagUsages())
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %s\n", gateway.Message(err))
	os.Exit(1)
}

func argAt(args []string, i int, usage string) string {
	if len(args) <= i {
		fail(errors.New("usage: wuzctl " + usage))
	}
	return args[i]
}

func openEnv(name string, settings config.Settings, output string) (*env, error) {
	if err := profile.EnsureDir(name); err != nil {
		return nil, err
	}
	logger, err := logging.New(profile.LogPath(name, "wuzctl"), name, logging.Options{})
	if err != nil {
		return nil, err
	}
	db, err := store.Open(profile.DBPath(name))
	if err != nil {
		return nil, err
	}
	if _, err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	vault := creds.NewVault(db, settings.SessionTTLHours)
	return &env{
		name:     name,
		settings: settings,
		db:       db,
		vault:    vault,
		client:   gateway.New(settings.BaseURL, settings.RequestTimeout.Duration, vault, logger.Named("gateway")),
		logger:   logger,
		output:   output,
	}, nil
}

func (e *env) close() {
	_ = e.db.Close()
	_ = e.logger.Sync()
}

// print writes v as JSON or YAML, or calls text for the default format.
func (e *env) print(v any, text func(w io.Writer)) {
	switch e.output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			fmt.Fprintf(os.Stderr, "yaml encode error: %v\n", err)
		}
		_ = enc.Close()
	default:
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		text(tw)
		_ = tw.Flush()
	}
}

type statusReport struct {
	Profile  string `json:"profile" yaml:"profile"`
	Gateway  string `json:"gateway" yaml:"gateway"`
	Role     string `json:"role" yaml:"role"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Viewer   string `json:"viewer,omitempty" yaml:"viewer,omitempty"`
	Poller   string `json:"poller,omitempty" yaml:"poller,omitempty"`
	Cached   int    `json:"cached_instances" yaml:"cached_instances"`
	Synced   string `json:"last_sync,omitempty" yaml:"last_sync,omitempty"`
}

func (e *env) status(_ context.Context) error {
	role, err := e.vault.ActiveRole()
	if err != nil {
		return err
	}
	current, _ := e.vault.CurrentInstance()
	cached, err := e.db.ListInstances()
	if err != nil {
		return err
	}
	r := statusReport{
		Profile:  e.name,
		Gateway:  e.settings.BaseURL,
		Role:     role.String(),
		Instance: current,
		Viewer:   e.vault.UserJID(),
		Cached:   len(cached),
	}
	if at, ok, err := intsync.NewCheckpoints(e.db).LastApplied(); err != nil {
		return err
	} else if ok {
		r.Synced = at.Format(time.RFC3339)
	}
	owner, held, err := lock.Probe(profile.Dir(e.name))
	if err != nil {
		return err
	}
	if held {
		r.Poller = fmt.Sprintf("%s (PID %d)", owner.Binary, owner.PID)
	}
	e.print(r, func(w io.Writer) {
		fmt.Fprintf(w, "Profile:\t%s\n", r.Profile)
		fmt.Fprintf(w, "Gateway:\t%s\n", r.Gateway)
		fmt.Fprintf(w, "Role:\t%s\n", r.Role)
		fmt.Fprintf(w, "Instance:\t%s\n", dash(r.Instance))
		fmt.Fprintf(w, "Viewer:\t%s\n", dash(r.Viewer))
		fmt.Fprintf(w, "Poller:\t%s\n", dash(r.Poller))
		fmt.Fprintf(w, "Cached instances:\t%d\n", r.Cached)
		fmt.Fprintf(w, "Last sync:\t%s\n", dash(r.Synced))
	})
	return nil
}

// login keeps token only when the gateway accepts it.
func (e *env) login(ctx context.Context, token string, admin bool) error {
	if admin {
		if err := e.vault.LoginAdmin(token); err != nil {
			return err
		}
		list, err := e.client.ListUsers(ctx)
		if err != nil {
			_ = e.vault.DropAdmin()
			return err
		}
		fmt.Printf("Admin token stored; %d instance(s) visible.\n", len(list))
		return nil
	}
	if err := e.vault.LoginUser(token); err != nil {
		return err
	}
	inst, err := e.client.Status(ctx)
	if err != nil {
		_ = e.vault.DropUserToken()
		return err
	}
	if inst.JID != "" {
		_ = e.vault.SetUserJID(inst.JID)
	}
	fmt.Printf("Logged in as %s (connected: %v, logged in: %v).\n", dash(inst.Name), inst.Connected, inst.LoggedIn)
	return nil
}

func (e *env) logout() error {
	if err := e.vault.Logout(); err != nil {
		return err
	}
	if err := outbox.NewSender(e.db, e.vault, nil, nil, e.logger).Abandon("logged out before delivery"); err != nil {
		return err
	}
	if err := intsync.NewEngine(e.db, nil, e.vault, e.logger).Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func (e *env) instances(ctx context.Context) error {
	if !e.vault.IsAdmin() {
		return errors.New("admin login required: wuzctl login --admin <token>")
	}
	list, err := e.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	e.print(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCONNECTED\tLOGGED IN\tJID\tEVENTS")
		for _, inst := range list {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%s\t%s\n", inst.ID, inst.Name, inst.Connected, inst.LoggedIn, dash(inst.JID), dash(inst.Events))
		}
	})
	return nil
}

func (e *env) contacts(ctx context.Context) error {
	list, err := e.client.Contacts(ctx)
	if err != nil {
		return err
	}
	e.print(list, func(w io.Writer) {
		fmt.Fprintln(w, "PHONE\tFULL NAME\tPUSH NAME")
		for _, c := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Phone, dash(c.FullName), dash(c.PushName))
		}
	})
	return nil
}

type groupRow struct {
	JID       string `json:"jid" yaml:"jid"`
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Community string `json:"community,omitempty" yaml:"community,omitempty"`
	Role      string `json:"role" yaml:"role"`
	Members   int    `json:"members" yaml:"members"`
	Admins    int    `json:"admins" yaml:"admins"`
	Owners    int    `json:"super_admins" yaml:"super_admins"`
	Timer     string `json:"timer" yaml:"timer"`
}

func (e *env) groups(ctx context.Context) error {
	inst, err := e.client.Status(ctx)
	if err != nil {
		return err
	}
	list, err := e.client.Groups(ctx)
	if err != nil {
		return err
	}
	rows := make([]groupRow, 0, len(list))
	for _, g := range list {
		v := dashboard.Annotate(g, list, inst.JID)
		rows = append(rows, groupRow{
			JID:       g.JID,
			Name:      g.Name,
			Type:      v.Kind.String(),
			Community: v.ParentName,
			Role:      v.Role.String(),
			Members:   v.Counts.Members,
			Admins:    v.Counts.Admins,
			Owners:    v.Counts.SuperAdmins,
			Timer:     wa.DisappearingLabel(g.DisappearingTimer),
		})
	}
	e.print(rows, func(w io.Writer) {
		fmt.Fprintln(w, "NAME\tTYPE\tCOMMUNITY\tROLE\tMEMBERS\tADMINS\tSUPER\tTIMER\tJID")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n", r.Name, r.Type, dash(r.Community), r.Role, r.Members, r.Admins, r.Owners, r.Timer, r.JID)
		}
	})
	return nil
}

// send queues the text. A running poller delivers it; otherwise the queue is
// drained here and the outcome printed.
func (e *env) send(ctx context.Context, phone, text string) error {
	events := bus.New()
	sender := outbox.NewSender(e.db, e.vault, outbox.ClientRoute(e.client), events, e.logger)
	id, err := sender.Enqueue(phone, text)
	if err != nil {
		return err
	}
	if owner, held, _ := lock.Probe(profile.Dir(e.name)); held {
		fmt.Printf("Queued %s; %s (PID %d) will deliver it.\n", id, owner.Binary, owner.PID)
		return nil
	}

	results, unsubscribe := events.Subscribe("message.", 16)
	defer unsubscribe()
	sender.Drain(ctx)
	for {
		select {
		case evt := <-results:
			switch p := evt.Payload.(type) {
			case outbox.SendAck:
				if p.ClientMsgID == id {
					fmt.Printf("Sent %s (server id %s).\n", id, p.ServerMsgID)
					return nil
				}
			case outbox.SendFailure:
				if p.ClientMsgID == id {
					if p.Retrying {
						return fmt.Errorf("%s; queued for retry", p.Error)
					}
					return errors.New(p.Error)
				}
			}
		default:
			fmt.Printf("Queued %s.\n", id)
			return nil
		}
	}
}

// health reads /healthz from the wuzd metrics listener.
func (e *env) health(ctx context.Context) error {
	if e.settings.MetricsAddr == "" {
		return errors.New("metrics_addr is not set in profile.toml")
	}
	addr := e.settings.MetricsAddr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("wuzd is not reachable at %s: %w", addr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode healthz: %w", err)
	}
	e.print(body, func(w io.Writer) {
		for _, k := range []string{"status", "state", "loop", "cadence", "last_ok", "last_error", "error"} {
			if v, ok := body[k]; ok {
				fmt.Fprintf(w, "%s:\t%v\n", k, v)
			}
		}
	})
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wuzd is unhealthy (HTTP %d)", resp.StatusCode)
	}
	return nil
}

func cmdProfiles(output string) {
	names, err := profile.List()
	if err != nil {
		fail(err)
	}
	e := &env{output: output}
	e.print(names, func(w io.Writer) {
		if len(names) == 0 {
			fmt.Fprintln(w, "No profiles found.")
			return
		}
		for _, n := range names {
			state := "idle"
			if owner, held, _ := lock.Probe(profile.Dir(n)); held {
				state = "polled by " + owner.Binary
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", n, profile.Dir(n), state)
		}
	})
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
