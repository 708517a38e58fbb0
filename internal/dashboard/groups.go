package dashboard

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/media"
	"github.com/matheus3301/wuzdash/internal/notify"
	"github.com/matheus3301/wuzdash/internal/perm"
	"github.com/matheus3301/wuzdash/internal/wa"
)

// GroupView is a group annotated for display.
type GroupView struct {
	gateway.Group
	Kind       perm.Kind
	Role       perm.Role
	Counts     perm.Counts
	ParentName string
}

// Annotate classifies g and resolves viewer's role in it. all is the
// viewer's full group list, used to name a community parent.
func Annotate(g gateway.Group, all []gateway.Group, viewer string) GroupView {
	v := GroupView{
		Group:  g,
		Kind:   perm.Classify(g),
		Role:   perm.ResolveRole(g, viewer),
		Counts: perm.CountAdmins(g),
	}
	if v.Kind == perm.CommunityGroup {
		v.ParentName = perm.ParentName(g, all)
	}
	return v
}

func (c *Controller) cachedGroups() []gateway.Group {
	c.groupsMu.RLock()
	defer c.groupsMu.RUnlock()
	return slices.Clone(c.groups)
}

func (c *Controller) storeGroups(list []gateway.Group) {
	c.groupsMu.Lock()
	c.groups = slices.Clone(list)
	c.groupsMu.Unlock()
}

func (c *Controller) storeGroup(g gateway.Group) {
	c.groupsMu.Lock()
	defer c.groupsMu.Unlock()
	i := slices.IndexFunc(c.groups, func(x gateway.Group) bool { return x.JID == g.JID })
	if i < 0 {
		c.groups = append(c.groups, g)
		return
	}
	c.groups[i] = g
}

func (c *Controller) clearGroups() {
	c.groupsMu.Lock()
	c.groups = nil
	c.groupsMu.Unlock()
}

// LoadGroups fetches the session status and group list together so every
// view resolves the viewer's role against a fresh identity.
func (c *Controller) LoadGroups(ctx context.Context) ([]GroupView, error) {
	var views []GroupView
	err := c.run(ctx, "Load groups", notify.Report, "", func(ctx context.Context) error {
		var (
			inst *gateway.Instance
			list []gateway.Group
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			inst, err = c.client.Status(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			list, err = c.client.Groups(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		if inst.JID != "" {
			if err := c.vault.SetUserJID(inst.JID); err != nil {
				c.logger.Warn("failed to cache viewer identity", zap.Error(err))
			}
		}
		c.storeGroups(list)
		viewer := c.ViewerJID()
		views = make([]GroupView, 0, len(list))
		for _, grp := range list {
			views = append(views, Annotate(grp, list, viewer))
		}
		c.bus.Emit(bus.KindGroupsLoaded, views)
		return nil
	})
	return views, err
}

// Group fetches one group and refreshes it in the cache.
func (c *Controller) Group(ctx context.Context, groupJID string) (*GroupView, error) {
	var out *GroupView
	err := c.run(ctx, "Group info", notify.Report, "", func(ctx context.Context) error {
		g, err := c.client.GroupInfo(ctx, groupJID)
		if err != nil {
			return err
		}
		c.storeGroup(*g)
		v := Annotate(*g, c.cachedGroups(), c.ViewerJID())
		out = &v
		return nil
	})
	return out, err
}

// CreateGroup creates a group with the given members.
func (c *Controller) CreateGroup(ctx context.Context, name string, phones []string) (*gateway.Group, error) {
	var out *gateway.Group
	err := c.run(ctx, "Create group", notify.Report, "Group created", func(ctx context.Context) error {
		var err error
		out, err = c.client.CreateGroup(ctx, name, phones)
		if err == nil {
			c.storeGroup(*out)
		}
		return err
	})
	return out, err
}

// InviteInfo previews the group behind an invite link or code.
func (c *Controller) InviteInfo(ctx context.Context, linkOrCode string) (*gateway.Group, error) {
	var out *gateway.Group
	err := c.run(ctx, "Invite info", notify.Report, "", func(ctx context.Context) error {
		var err error
		out, err = c.client.InviteInfo(ctx, linkOrCode)
		return err
	})
	return out, err
}

// JoinGroup joins through an invite link or code.
func (c *Controller) JoinGroup(ctx context.Context, linkOrCode string) error {
	return c.run(ctx, "Join group", notify.Report, "Joined group", func(ctx context.Context) error {
		return c.client.JoinGroup(ctx, linkOrCode)
	})
}

// SetGroupName renames a group.
func (c *Controller) SetGroupName(ctx context.Context, groupJID, name string) error {
	return c.run(ctx, "Set group name", notify.Report, "Group name updated", func(ctx context.Context) error {
		return c.client.SetGroupName(ctx, groupJID, name)
	})
}

// SetGroupTopic changes a group description.
func (c *Controller) SetGroupTopic(ctx context.Context, groupJID, topic string) error {
	return c.run(ctx, "Set group topic", notify.Report, "Group description updated", func(ctx context.Context) error {
		return c.client.SetGroupTopic(ctx, groupJID, topic)
	})
}

// SetAnnounce toggles admin-only messaging.
func (c *Controller) SetAnnounce(ctx context.Context, groupJID string, announce bool) error {
	return c.run(ctx, "Set announce", notify.Report, "Group messaging updated", func(ctx context.Context) error {
		return c.client.SetAnnounce(ctx, groupJID, announce)
	})
}

// SetLocked toggles admin-only settings edits.
func (c *Controller) SetLocked(ctx context.Context, groupJID string, locked bool) error {
	return c.run(ctx, "Set locked", notify.Report, "Group settings updated", func(ctx context.Context) error {
		return c.client.SetLocked(ctx, groupJID, locked)
	})
}

// SetDisappearing sets the disappearing-messages timer.
func (c *Controller) SetDisappearing(ctx context.Context, groupJID string, seconds uint32) error {
	return c.run(ctx, "Set disappearing", notify.Report,
		"Disappearing messages: "+wa.DisappearingLabel(seconds),
		func(ctx context.Context) error {
			return c.client.SetDisappearing(ctx, groupJID, seconds)
		})
}

// rosterFor returns groupJID from the cache, fetching it when missing.
func (c *Controller) rosterFor(ctx context.Context, groupJID string) (gateway.Group, error) {
	for _, g := range c.cachedGroups() {
		if g.JID == groupJID {
			return g, nil
		}
	}
	g, err := c.client.GroupInfo(ctx, groupJID)
	if err != nil {
		return gateway.Group{}, err
	}
	c.storeGroup(*g)
	return *g, nil
}

// checkParticipants applies the gating rules to every target before any
// change is sent.
func checkParticipants(g gateway.Group, viewer, action string, phones []string) error {
	role := perm.ResolveRole(g, viewer)
	if !role.IsAdmin() {
		return &gateway.ValidationError{Field: "action", Message: "only group admins can manage participants"}
	}
	if action == gateway.ActionAdd {
		return nil
	}
	for _, phone := range phones {
		target, ok := perm.Find(g.Participants, wa.UserJID(phone))
		if !ok {
			return &gateway.ValidationError{Field: "phones", Message: phone + " is not a member of this group"}
		}
		if !perm.Allowed(action, role, target, viewer) {
			return &gateway.ValidationError{
				Field:   "action",
				Message: fmt.Sprintf("not allowed to %s %s", action, phone),
			}
		}
	}
	return nil
}

// UpdateParticipants adds, removes, promotes or demotes members after
// checking the viewer may do so. The cached roster is refreshed afterwards.
func (c *Controller) UpdateParticipants(ctx context.Context, groupJID, action string, phones []string) error {
	return c.run(ctx, "Update participants", notify.Report, "Participants updated", func(ctx context.Context) error {
		if len(phones) == 0 {
			return &gateway.ValidationError{Field: "phones", Message: "at least one phone is required"}
		}
		if !wa.IsGroupJID(groupJID) {
			return &gateway.ValidationError{Field: "group", Message: "a group JID is required"}
		}
		g, err := c.rosterFor(ctx, groupJID)
		if err != nil {
			return err
		}
		if err := checkParticipants(g, c.ViewerJID(), action, phones); err != nil {
			return err
		}
		if err := c.client.UpdateParticipants(ctx, groupJID, action, phones); err != nil {
			return err
		}
		if fresh, err := c.client.GroupInfo(ctx, groupJID); err == nil {
			c.storeGroup(*fresh)
		}
		return nil
	})
}

// InviteLink returns the group's invite link, optionally revoking the old one.
func (c *Controller) InviteLink(ctx context.Context, groupJID string, reset bool) (string, error) {
	var link string
	success := ""
	if reset {
		success = "Invite link reset"
	}
	err := c.run(ctx, "Invite link", notify.Report, success, func(ctx context.Context) error {
		var err error
		link, err = c.client.InviteLink(ctx, groupJID, reset)
		return err
	})
	return link, err
}

// SetGroupPhoto scales an image to a JPEG the gateway accepts and uploads it.
func (c *Controller) SetGroupPhoto(ctx context.Context, groupJID string, image []byte) error {
	return c.run(ctx, "Set group photo", notify.Report, "Group photo updated", func(ctx context.Context) error {
		if !wa.IsGroupJID(groupJID) {
			return &gateway.ValidationError{Field: "group", Message: "a group JID is required"}
		}
		jpg, err := media.PrepareGroupPhoto(image)
		if err != nil {
			return &gateway.ValidationError{Field: "image", Message: strings.TrimSpace(err.Error())}
		}
		return c.client.SetGroupPhoto(ctx, groupJID, media.JPEGDataURL(jpg))
	})
}

// RemoveGroupPhoto clears the group photo.
func (c *Controller) RemoveGroupPhoto(ctx context.Context, groupJID string) error {
	return c.run(ctx, "Remove group photo", notify.Report, "Group photo removed", func(ctx context.Context) error {
		return c.client.RemoveGroupPhoto(ctx, groupJID)
	})
}

// LeaveGroup leaves a group and drops it from the cache.
func (c *Controller) LeaveGroup(ctx context.Context, groupJID string) error {
	return c.run(ctx, "Leave group", notify.Report, "Left group", func(ctx context.Context) error {
		if err := c.client.LeaveGroup(ctx, groupJID); err != nil {
			return err
		}
		c.groupsMu.Lock()
		c.groups = slices.DeleteFunc(c.groups, func(g gateway.Group) bool { return g.JID == groupJID })
		c.groupsMu.Unlock()
		return nil
	})
}
