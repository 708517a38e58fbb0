package gateway

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

var (
	proxySchemeRegexp = regexp.MustCompile(`^(https?|socks5)://`)
	bucketRegexp      = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)
)

// EventAll subscribes to every event type.
const EventAll = "All"

// KnownEvents lists the webhook event types the gateway understands.
var KnownEvents = []string{
	EventAll, "Message", "ReadReceipt", "Presence", "HistorySync", "ChatPresence",
	"GroupInfo", "JoinedGroup", "Picture", "CallOffer", "Connected", "Disconnected",
	"LoggedOut", "QR", "PairSuccess",
}

// NormalizeEvents drops blanks and duplicates and collapses any selection
// containing "All" to just "All".
func NormalizeEvents(events []string) []string {
	var out []string
	for _, e := range events {
		e = strings.TrimSpace(e)
		if e == "" || slices.Contains(out, e) {
			continue
		}
		if e == EventAll {
			return []string{EventAll}
		}
		out = append(out, e)
	}
	return out
}

// ValidateProxyURL checks that a proxy URL uses a supported scheme.
func ValidateProxyURL(raw string) error {
	if raw == "" {
		return invalid("proxy_url", "proxy URL is required when proxy is enabled")
	}
	if !proxySchemeRegexp.MatchString(raw) {
		return invalid("proxy_url", "proxy URL must start with http://, https:// or socks5://")
	}
	if _, err := url.Parse(raw); err != nil {
		return invalid("proxy_url", "proxy URL is malformed")
	}
	return nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("s3_endpoint", "endpoint must be a valid URL")
	}
	return nil
}

// ValidateBucket checks an S3 bucket name.
func ValidateBucket(name string) error {
	if !bucketRegexp.MatchString(name) {
		return invalid("s3_bucket", "bucket name must be lowercase letters, digits, dots or hyphens")
	}
	return nil
}

// S3Settings is the writable storage configuration.
type S3Settings struct {
	Enabled       bool   `json:"enabled"`
	Endpoint      string `json:"endpoint"`
	Region        string `json:"region"`
	Bucket        string `json:"bucket"`
	AccessKey     string `json:"access_key"`
	SecretKey     string `json:"secret_key"`
	PathStyle     bool   `json:"path_style"`
	PublicURL     string `json:"public_url"`
	MediaDelivery string `json:"media_delivery"`
	RetentionDays int    `json:"retention_days"`
}

// Defaults for storage settings left blank.
const (
	DefaultMediaDelivery = "base64"
	DefaultRetentionDays = 30
)

var mediaDeliveries = []string{"base64", "s3", "both"}

func (s *S3Settings) applyDefaults() {
	if s.MediaDelivery == "" {
		s.MediaDelivery = DefaultMediaDelivery
	}
	if s.RetentionDays <= 0 {
		s.RetentionDays = DefaultRetentionDays
	}
}

// Validate checks s as part of a new instance. Enabled storage needs the
// bucket and both keys.
func (s S3Settings) Validate() error {
	if err := s.validateFormat(); err != nil {
		return err
	}
	if !s.Enabled {
		return nil
	}
	switch {
	case s.Bucket == "":
		return invalid("s3_bucket", "bucket is required when S3 is enabled")
	case s.AccessKey == "":
		return invalid("s3_access_key", "access key is required when S3 is enabled")
	case s.SecretKey == "":
		return invalid("s3_secret_key", "secret key is required when S3 is enabled")
	}
	return nil
}

// validateFormat checks only the fields that were filled in.
func (s S3Settings) validateFormat() error {
	if s.Endpoint != "" {
		if err := validateEndpoint(s.Endpoint); err != nil {
			return err
		}
	}
	if s.Bucket != "" {
		if err := ValidateBucket(s.Bucket); err != nil {
			return err
		}
	}
	if s.MediaDelivery != "" && !slices.Contains(mediaDeliveries, s.MediaDelivery) {
		return invalid("s3_media_delivery", "media delivery must be base64, s3 or both")
	}
	if s.RetentionDays < 0 {
		return invalid("s3_retention_days", "retention days cannot be negative")
	}
	return nil
}

// CreateInstanceRequest is the admin form for a new instance.
type CreateInstanceRequest struct {
	Name         string
	Token        string
	Events       []string
	Webhook      string
	ProxyEnabled bool
	ProxyURL     string
	S3           S3Settings
}

// Validate runs every client-side check of the create form.
func (r CreateInstanceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "name is required")
	}
	if strings.TrimSpace(r.Token) == "" {
		return invalid("token", "token is required")
	}
	if len(NormalizeEvents(r.Events)) == 0 {
		return invalid("events", "select at least one event")
	}
	if r.ProxyEnabled || r.ProxyURL != "" {
		if err := ValidateProxyURL(r.ProxyURL); err != nil {
			return err
		}
	}
	return r.S3.Validate()
}

type createInstancePayload struct {
	Name        string             `json:"name"`
	Token       string             `json:"token"`
	Events      string             `json:"events"`
	Webhook     string             `json:"webhook"`
	Expiration  int64              `json:"expiration"`
	ProxyConfig createProxyPayload `json:"proxyConfig"`
	S3Config    createS3Payload    `json:"s3Config"`
}

type createProxyPayload struct {
	Enabled  bool   `json:"enabled"`
	ProxyURL string `json:"proxyURL"`
}

type createS3Payload struct {
	Enabled       bool   `json:"enabled"`
	Endpoint      string `json:"endpoint"`
	Region        string `json:"region"`
	Bucket        string `json:"bucket"`
	AccessKey     string `json:"accessKey"`
	SecretKey     string `json:"secretKey"`
	PathStyle     bool   `json:"pathStyle"`
	PublicURL     string `json:"publicURL"`
	MediaDelivery string `json:"mediaDelivery"`
	RetentionDays int    `json:"retentionDays"`
}

// payload builds the wire body. Disabled sections are sent blank.
func (r CreateInstanceRequest) payload() createInstancePayload {
	p := createInstancePayload{
		Name:    strings.TrimSpace(r.Name),
		Token:   strings.TrimSpace(r.Token),
		Events:  strings.Join(NormalizeEvents(r.Events), ","),
		Webhook: r.Webhook,
		ProxyConfig: createProxyPayload{
			Enabled: r.ProxyEnabled,
		},
		S3Config: createS3Payload{
			PathStyle:     r.S3.PathStyle,
			MediaDelivery: DefaultMediaDelivery,
			RetentionDays: DefaultRetentionDays,
		},
	}
	if r.ProxyEnabled {
		p.ProxyConfig.ProxyURL = r.ProxyURL
	}
	if r.S3.Enabled {
		s := r.S3
		s.applyDefaults()
		p.S3Config = createS3Payload{
			Enabled:       true,
			Endpoint:      s.Endpoint,
			Region:        s.Region,
			Bucket:        s.Bucket,
			AccessKey:     s.AccessKey,
			SecretKey:     s.SecretKey,
			PathStyle:     s.PathStyle,
			PublicURL:     s.PublicURL,
			MediaDelivery: s.MediaDelivery,
			RetentionDays: s.RetentionDays,
		}
	}
	return p
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, field+" is required")
	}
	return nil
}
