package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/wuzdash/internal/gateway"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"quit", Command{Name: "quit"}},
		{"  SEND 5511999 hello there ", Command{Name: "send", Args: "5511999 hello there"}},
		{"open", Command{Name: "open"}},
		{"", Command{Name: ""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCommand(tt.input), tt.input)
	}

	phone, text := ParseCommand("send 5511999 hello  there").Head()
	assert.Equal(t, "5511999", phone)
	assert.Equal(t, "hello  there", text)
}

func TestParseTimer(t *testing.T) {
	for in, want := range map[string]uint32{"off": 0, "24h": 86400, "7D": 604800, "90d": 7776000} {
		got, err := parseTimer(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseTimer("3d")
	assert.True(t, gateway.IsValidation(err))
}

func TestParseToggle(t *testing.T) {
	on, err := parseToggle("ON")
	require.NoError(t, err)
	assert.True(t, on)
	off, err := parseToggle("off")
	require.NoError(t, err)
	assert.False(t, off)
	_, err = parseToggle("maybe")
	assert.Error(t, err)
}

func TestSplitPhones(t *testing.T) {
	assert.Equal(t, []string{"551", "552", "553"}, splitPhones("551, 552 553,"))
	assert.Empty(t, splitPhones(" , "))
}

func TestParseCreate(t *testing.T) {
	req, err := parseCreate([]string{"shop", "tok", "events=Message,ReadReceipt", "proxy=socks5://p:1080", "s3.bucket=media", "s3.access=AK", "s3.secret=SK", "s3.retention=7"})
	require.NoError(t, err)
	assert.Equal(t, "shop", req.Name)
	assert.Equal(t, []string{"Message", "ReadReceipt"}, req.Events)
	assert.True(t, req.ProxyEnabled)
	assert.Equal(t, "socks5://p:1080", req.ProxyURL)
	assert.True(t, req.S3.Enabled)
	assert.Equal(t, 7, req.S3.RetentionDays)
	require.NoError(t, req.Validate())

	req, err = parseCreate([]string{"shop", "tok"})
	require.NoError(t, err)
	assert.Equal(t, []string{gateway.EventAll}, req.Events)
	assert.False(t, req.S3.Enabled)

	_, err = parseCreate([]string{"shop"})
	assert.True(t, gateway.IsValidation(err))
	_, err = parseCreate([]string{"shop", "tok", "colour=blue"})
	assert.True(t, gateway.IsValidation(err))
	_, err = parseCreate([]string{"shop", "tok", "s3.retention=week"})
	assert.True(t, gateway.IsValidation(err))
}
