package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct{ user, admin string }

func (s staticCreds) UserToken() (string, error)  { return s.user, nil }
func (s staticCreds) AdminToken() (string, error) { return s.admin, nil }

type fakeGateway struct {
	*httptest.Server
	hits    atomic.Int32
	headers atomic.Value // http.Header of the last request
	bodies  chan map[string]any
}

func newFakeGateway(t *testing.T, mount func(r chi.Router)) *fakeGateway {
	t.Helper()
	fg := &fakeGateway{bodies: make(chan map[string]any, 8)}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fg.hits.Add(1)
			fg.headers.Store(req.Header.Clone())
			if req.Body != nil && req.ContentLength != 0 {
				var m map[string]any
				if json.NewDecoder(req.Body).Decode(&m) == nil {
					select {
					case fg.bodies <- m:
					default:
					}
				}
			}
			next.ServeHTTP(w, req)
		})
	})
	mount(r)
	fg.Server = httptest.NewServer(r)
	t.Cleanup(fg.Close)
	return fg
}

func (fg *fakeGateway) lastHeader() http.Header {
	h, _ := fg.headers.Load().(http.Header)
	return h
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestClient(fg *fakeGateway) *Client {
	return New(fg.URL, 5*time.Second, staticCreds{user: "user-tok", admin: "admin-tok"}, nil)
}

func TestStatusCodeEnvelope(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Get("/session/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"code":200,"data":{"id":"A","name":"main","connected":true,"loggedIn":false,"jid":""}}`)
		})
	})
	inst, err := newTestClient(fg).Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", inst.ID)
	assert.True(t, inst.Connected)
	assert.False(t, inst.LoggedIn)
	assert.Equal(t, "user-tok", fg.lastHeader().Get("token"))
	assert.Empty(t, fg.lastHeader().Get("authorization"))
}

func TestStatusSuccessEnvelope(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Get("/session/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"success":true,"data":{"id":7,"connected":true,"loggedIn":true,"jid":"111:5@s.whatsapp.net"}}`)
		})
	})
	inst, err := newTestClient(fg).Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", inst.ID)
	assert.True(t, inst.LoggedIn)
	assert.Equal(t, "111:5@s.whatsapp.net", inst.JID)
}

func TestAdminScopeUsesAuthorizationHeader(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Get("/admin/users", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"code":200,"data":[{"id":"A","name":"one","events":["Message","ReadReceipt"]},{"id":"B","name":"two","events":"All"}],"success":true}`)
		})
	})
	list, err := newTestClient(fg).ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Message,ReadReceipt", list[0].Events)
	assert.Equal(t, "All", list[1].Events)
	assert.Equal(t, "admin-tok", fg.lastHeader().Get("authorization"))
	assert.Empty(t, fg.lastHeader().Get("token"))
}

func TestEnvelopeFailureIsAPIError(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"success false", `{"success":false,"error":"no session"}`, "no session"},
		{"code 500", `{"code":500,"error":"boom"}`, "boom"},
		{"message fallback", `{"code":400,"message":"bad input"}`, "bad input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg := newFakeGateway(t, func(r chi.Router) {
				r.Get("/session/status", func(w http.ResponseWriter, _ *http.Request) {
					writeJSON(w, 200, tt.body)
				})
			})
			_, err := newTestClient(fg).Status(context.Background())
			var ae *APIError
			require.True(t, errors.As(err, &ae), "got %v", err)
			assert.Equal(t, tt.msg, Message(err))
		})
	}
}

func TestNon2xxIsTransportError(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Get("/session/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 401, `{"code":401,"error":"unauthorized"}`)
		})
	})
	_, err := newTestClient(fg).Status(context.Background())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 401, te.Status)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "unauthorized", Message(err))
}

func TestUnreachableIsTransportError(t *testing.T) {
	fg := newFakeGateway(t, func(chi.Router) {})
	url := fg.URL
	fg.Close()
	c := New(url, time.Second, staticCreds{}, nil)
	_, err := c.Status(context.Background())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.Status)
	assert.False(t, IsValidation(err))
}

func TestValidationHappensBeforeNetwork(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.HandleFunc("/*", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"success":true}`)
		})
	})
	c := newTestClient(fg)
	ctx := context.Background()

	calls := map[string]func() error{
		"create without name": func() error {
			_, err := c.CreateInstance(ctx, CreateInstanceRequest{Token: "t", Events: []string{"All"}})
			return err
		},
		"create bad proxy": func() error {
			_, err := c.CreateInstance(ctx, CreateInstanceRequest{Name: "n", Token: "t", Events: []string{"All"}, ProxyEnabled: true, ProxyURL: "ftp://x"})
			return err
		},
		"create s3 without keys": func() error {
			_, err := c.CreateInstance(ctx, CreateInstanceRequest{Name: "n", Token: "t", Events: []string{"All"}, S3: S3Settings{Enabled: true, Bucket: "media"}})
			return err
		},
		"bad bucket": func() error {
			return c.SaveS3Config(ctx, S3Settings{Bucket: "Bad_Bucket"})
		},
		"proxy without url": func() error { return c.SetProxy(ctx, true, "") },
		"pair without phone": func() error {
			_, err := c.PairPhone(ctx, " ")
			return err
		},
		"send empty body": func() error {
			_, err := c.SendText(ctx, "5511999", "  ", "")
			return err
		},
		"participants without phones": func() error {
			return c.UpdateParticipants(ctx, "1@g.us", ActionAdd, []string{" "})
		},
		"unknown action": func() error {
			return c.UpdateParticipants(ctx, "1@g.us", "ban", []string{"1"})
		},
		"join without code": func() error { return c.JoinGroup(ctx, "  ") },
		"bad timer":         func() error { return c.SetDisappearing(ctx, "1@g.us", 3600) },
		"photo not jpeg":    func() error { return c.SetGroupPhoto(ctx, "1@g.us", "data:image/png;base64,AA") },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, IsValidation(err), "got %T %v", err, err)
		})
	}
	assert.Zero(t, fg.hits.Load())
}

func TestCreateInstancePayload(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Post("/admin/users", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"code":200,"data":{"id":"X","name":"n","token":"t"}}`)
		})
	})
	inst, err := newTestClient(fg).CreateInstance(context.Background(), CreateInstanceRequest{
		Name: "n", Token: "t", Events: []string{"Message", "All"},
		ProxyEnabled: true, ProxyURL: "socks5://proxy:1080",
	})
	require.NoError(t, err)
	assert.Equal(t, "X", inst.ID)

	body := <-fg.bodies
	assert.Equal(t, "All", body["events"])
	proxy := body["proxyConfig"].(map[string]any)
	assert.Equal(t, true, proxy["enabled"])
	assert.Equal(t, "socks5://proxy:1080", proxy["proxyURL"])
}

func TestSendTextUsesClientID(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Post("/chat/send/text", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"code":200,"data":{"Details":"Sent","Timestamp":1}}`)
		})
	})
	c := newTestClient(fg)
	c.newID = func() string { return "fixed-id" }
	res, err := c.SendText(context.Background(), "+55 11", "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", res.ID)

	body := <-fg.bodies
	assert.Equal(t, "fixed-id", body["Id"])
	assert.Equal(t, "hi", body["Body"])
}

func TestWithUserTokenOverridesCredential(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Post("/session/connect", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"success":true,"data":{"details":"Connected!"}}`)
		})
	})
	c := newTestClient(fg).WithUserToken("instance-tok")
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, "instance-tok", fg.lastHeader().Get("token"))

	body := <-fg.bodies
	assert.Equal(t, true, body["Immediate"])
	assert.Equal(t, []any{"All"}, body["Subscribe"])
}

func TestGroupListAndInviteLink(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Get("/group/list", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"code":200,"data":{"Groups":[{"JID":"1@g.us","Name":"G","IsParent":true,"Participants":[{"JID":"111@s.whatsapp.net","IsAdmin":true}]}]}}`)
		})
		r.Get("/group/invitelink", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("reset") != "true" || req.URL.Query().Get("groupJID") != "1@g.us" {
				writeJSON(w, 400, `{"code":400,"error":"bad query"}`)
				return
			}
			writeJSON(w, 200, `{"code":200,"data":{"InviteLink":"https://chat.whatsapp.com/AbC123"}}`)
		})
	})
	c := newTestClient(fg)
	groups, err := c.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].IsParent)
	assert.True(t, groups[0].Participants[0].IsAdmin)

	link, err := c.InviteLink(context.Background(), "1@g.us", true)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.whatsapp.com/AbC123", link)
}

func TestContactsSortedByPhone(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Get("/user/contacts", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"code":200,"data":{"222@s.whatsapp.net":{"FullName":"B"},"111@s.whatsapp.net":{"PushName":"a"}}}`)
		})
	})
	list, err := newTestClient(fg).Contacts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "111", list[0].Phone)
	assert.Equal(t, "a", list[0].PushName)
	assert.Equal(t, "B", list[1].FullName)
}

func TestSaveS3RedactedKeySentBlank(t *testing.T) {
	fg := newFakeGateway(t, func(r chi.Router) {
		r.Post("/session/s3/config", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, `{"success":true}`)
		})
	})
	err := newTestClient(fg).SaveS3Config(context.Background(), S3Settings{Bucket: "media", AccessKey: RedactedKey})
	require.NoError(t, err)
	body := <-fg.bodies
	assert.Equal(t, "", body["access_key"])
	assert.Equal(t, "base64", body["media_delivery"])
	assert.EqualValues(t, 30, body["retention_days"])
}
