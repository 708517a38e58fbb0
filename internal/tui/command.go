package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matheus3301/wuzdash/internal/gateway"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Fields splits Args on whitespace.
func (c Command) Fields() []string { return strings.Fields(c.Args) }

// Head returns the first argument and the rest of the line.
func (c Command) Head() (first, rest string) {
	first, rest, _ = strings.Cut(c.Args, " ")
	return first, strings.TrimSpace(rest)
}

func usageError(usage string) error {
	return &gateway.ValidationError{Message: "usage: " + usage}
}

// parseToggle reads on/off style arguments.
func parseToggle(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1", "enable":
		return true, nil
	case "off", "false", "no", "0", "disable":
		return false, nil
	}
	return false, &gateway.ValidationError{Message: fmt.Sprintf("expected on or off, got %q", s)}
}

// parseTimer maps the accepted disappearing-timer spellings to seconds.
func parseTimer(s string) (uint32, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return 0, nil
	case "24h", "1d":
		return 86400, nil
	case "7d":
		return 604800, nil
	case "90d":
		return 7776000, nil
	}
	return 0, &gateway.ValidationError{Field: "timer", Message: "timer must be off, 24h, 7d or 90d"}
}

// splitPhones accepts phones separated by commas and/or spaces.
func splitPhones(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
}

// parseOptions reads key=value words. Keys are lower-cased.
func parseOptions(words []string) (map[string]string, error) {
	opts := make(map[string]string, len(words))
	for _, w := range words {
		k, v, ok := strings.Cut(w, "=")
		if !ok || k == "" {
			return nil, &gateway.ValidationError{Message: fmt.Sprintf("expected key=value, got %q", w)}
		}
		opts[strings.ToLower(k)] = v
	}
	return opts, nil
}

// applyS3 copies s3 options onto s. Unknown keys are rejected.
func applyS3(opts map[string]string, s *gateway.S3Settings, prefix string) error {
	for k, v := range opts {
		key, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		var err error
		switch key {
		case "enabled":
			s.Enabled, err = parseToggle(v)
		case "endpoint":
			s.Endpoint = v
		case "region":
			s.Region = v
		case "bucket":
			s.Bucket = v
		case "access":
			s.AccessKey = v
		case "secret":
			s.SecretKey = v
		case "pathstyle":
			s.PathStyle, err = parseToggle(v)
		case "public":
			s.PublicURL = v
		case "delivery":
			s.MediaDelivery = v
		case "retention":
			s.RetentionDays, err = strconv.Atoi(v)
			if err != nil {
				err = &gateway.ValidationError{Field: "s3_retention_days", Message: "retention must be a number of days"}
			}
		default:
			err = &gateway.ValidationError{Message: "unknown option " + k}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// parseCreate reads "<name> <token> [events=a,b] [webhook=url] [proxy=url]
// [s3.bucket=...]" into a create request.
func parseCreate(args []string) (gateway.CreateInstanceRequest, error) {
	const usage = "create <name> <token> [events=All] [webhook=url] [proxy=url] [s3.key=value...]"
	if len(args) < 2 {
		return gateway.CreateInstanceRequest{}, usageError(usage)
	}
	req := gateway.CreateInstanceRequest{Name: args[0], Token: args[1], Events: []string{gateway.EventAll}}
	opts, err := parseOptions(args[2:])
	if err != nil {
		return req, err
	}
	for k, v := range opts {
		switch {
		case k == "events":
			req.Events = strings.Split(v, ",")
		case k == "webhook":
			req.Webhook = v
		case k == "proxy":
			req.ProxyEnabled, req.ProxyURL = true, v
		case strings.HasPrefix(k, "s3."):
		default:
			return req, &gateway.ValidationError{Message: "unknown option " + k}
		}
	}
	if err := applyS3(opts, &req.S3, "s3."); err != nil {
		return req, err
	}
	if req.S3.Bucket != "" && !hasKey(opts, "s3.enabled") {
		req.S3.Enabled = true
	}
	return req, nil
}

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}
