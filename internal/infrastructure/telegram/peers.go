package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
)

const dialogPageSize = 200

// peerCache remembers access hashes for users and channels this account
// has seen in updates, dialog listings and username resolutions. MTProto
// requires the hash to address a peer, so actions on bare numeric ids only
// work for peers already present here.
type peerCache struct {
	mu       sync.RWMutex
	users    map[int64]int64
	channels map[int64]int64
}

func newPeerCache() *peerCache {
	return &peerCache{
		users:    make(map[int64]int64),
		channels: make(map[int64]int64),
	}
}

func (p *peerCache) rememberUser(id, accessHash int64) {
	p.mu.Lock()
	p.users[id] = accessHash
	p.mu.Unlock()
}

func (p *peerCache) rememberChannel(id, accessHash int64) {
	p.mu.Lock()
	p.channels[id] = accessHash
	p.mu.Unlock()
}

func (p *peerCache) user(id int64) (int64, bool) {
	p.mu.RLock()
	hash, ok := p.users[id]
	p.mu.RUnlock()
	return hash, ok
}

func (p *peerCache) channel(id int64) (int64, bool) {
	p.mu.RLock()
	hash, ok := p.channels[id]
	p.mu.RUnlock()
	return hash, ok
}

// absorb stores every access hash carried by an update's entity maps.
func (p *peerCache) absorb(e tg.Entities) {
	for id, user := range e.Users {
		p.rememberUser(id, user.AccessHash)
	}
	for id, channel := range e.Channels {
		p.rememberChannel(id, channel.AccessHash)
	}
}

func (p *peerCache) absorbUsers(users []tg.UserClass) {
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			p.rememberUser(user.ID, user.AccessHash)
		}
	}
}

func (p *peerCache) absorbChats(chats []tg.ChatClass) {
	for _, c := range chats {
		if channel, ok := c.(*tg.Channel); ok {
			p.rememberChannel(channel.ID, channel.AccessHash)
		}
	}
}

// markedChannelID converts a bare MTProto channel id to the -100 prefixed
// form used across the panel in group lists, config entries and links.
func markedChannelID(id int64) int64 {
	marked, err := strconv.ParseInt("-100"+strconv.FormatInt(id, 10), 10, 64)
	if err != nil {
		return -id
	}
	return marked
}

// bareChannelID reverses markedChannelID.
func bareChannelID(id int64) int64 {
	s := strconv.FormatInt(id, 10)
	s = strings.Replace(s, "-100", "", 1)
	s = strings.TrimPrefix(s, "-")
	bare, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return id
	}
	return bare
}

// isMarkedChannelID reports whether a numeric id is in the -100 form.
func isMarkedChannelID(id int64) bool {
	s := strconv.FormatInt(id, 10)
	return strings.HasPrefix(s, "-100") && len(s) > len("-100")
}

// normalizeChatRef reduces t.me links and @mentions to a bare username.
func normalizeChatRef(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "https://")
	ref = strings.TrimPrefix(ref, "http://")
	if _, rest, ok := strings.Cut(ref, "t.me/"); ok {
		ref = rest
	}
	ref = strings.TrimPrefix(ref, "@")
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	return ref
}

// inviteHash extracts the invite hash from the t.me/+hash and
// t.me/joinchat/hash link forms. Public links report false.
func inviteHash(link string) (string, bool) {
	clean := strings.TrimSpace(link)
	clean = strings.TrimPrefix(clean, "https://")
	clean = strings.TrimPrefix(clean, "http://")
	if _, rest, ok := strings.Cut(clean, "t.me/"); ok {
		clean = rest
	}
	clean = strings.TrimSuffix(clean, "/")

	if strings.HasPrefix(clean, "+") {
		hash := strings.TrimPrefix(clean, "+")
		return hash, hash != ""
	}
	if _, rest, ok := strings.Cut(clean, "joinchat/"); ok {
		return rest, rest != ""
	}
	return "", false
}

// asInputChannel narrows an input peer to a channel reference.
func asInputChannel(peer tg.InputPeerClass) (*tg.InputChannel, bool) {
	ch, ok := peer.(*tg.InputPeerChannel)
	if !ok {
		return nil, false
	}
	return &tg.InputChannel{ChannelID: ch.ChannelID, AccessHash: ch.AccessHash}, true
}

// resolveUsername resolves a public username to an input peer, caching the
// access hashes the server returns alongside.
func (c *MTProtoClient) resolveUsername(ctx context.Context, api *tg.Client, username string) (tg.InputPeerClass, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, accounterrors.ErrChatNotFound
	}

	resolved, err := api.ContactsResolveUsername(ctx, username)
	if err != nil {
		if tgerr.Is(err, "USERNAME_NOT_OCCUPIED") || tgerr.Is(err, "USERNAME_INVALID") {
			return nil, fmt.Errorf("%w: @%s", accounterrors.ErrChatNotFound, username)
		}
		return nil, classifyError(err)
	}
	c.peers.absorbUsers(resolved.Users)
	c.peers.absorbChats(resolved.Chats)

	switch peer := resolved.Peer.(type) {
	case *tg.PeerUser:
		if hash, ok := c.peers.user(peer.UserID); ok {
			return &tg.InputPeerUser{UserID: peer.UserID, AccessHash: hash}, nil
		}
	case *tg.PeerChannel:
		if hash, ok := c.peers.channel(peer.ChannelID); ok {
			return &tg.InputPeerChannel{ChannelID: peer.ChannelID, AccessHash: hash}, nil
		}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: peer.ChatID}, nil
	}
	return nil, fmt.Errorf("%w: @%s", accounterrors.ErrChatNotFound, username)
}

// resolveChannel returns an input channel for a bare channel id,
// backfilling the hash cache from the dialog list when the channel has not
// been seen yet.
func (c *MTProtoClient) resolveChannel(ctx context.Context, api *tg.Client, bareID int64) (*tg.InputChannel, error) {
	if hash, ok := c.peers.channel(bareID); ok {
		return &tg.InputChannel{ChannelID: bareID, AccessHash: hash}, nil
	}

	if err := c.loadDialogPeers(ctx, api); err != nil {
		return nil, err
	}
	if hash, ok := c.peers.channel(bareID); ok {
		return &tg.InputChannel{ChannelID: bareID, AccessHash: hash}, nil
	}
	return nil, fmt.Errorf("%w: channel %d", accounterrors.ErrChatNotFound, bareID)
}

// loadDialogPeers walks the first page of dialogs to warm the hash cache.
func (c *MTProtoClient) loadDialogPeers(ctx context.Context, api *tg.Client) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	result, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		Limit:      dialogPageSize,
		OffsetPeer: &tg.InputPeerEmpty{},
	})
	if err != nil {
		return classifyError(err)
	}

	switch dialogs := result.(type) {
	case *tg.MessagesDialogs:
		c.peers.absorbUsers(dialogs.Users)
		c.peers.absorbChats(dialogs.Chats)
	case *tg.MessagesDialogsSlice:
		c.peers.absorbUsers(dialogs.Users)
		c.peers.absorbChats(dialogs.Chats)
	}
	return nil
}

// linkPeer resolves a parsed message link to an input peer.
func (c *MTProtoClient) linkPeer(ctx context.Context, api *tg.Client, parsed *ops.ParsedLink) (tg.InputPeerClass, error) {
	if parsed.Private() {
		channel, err := c.resolveChannel(ctx, api, bareChannelID(parsed.ChannelID))
		if err != nil {
			return nil, err
		}
		return &tg.InputPeerChannel{ChannelID: channel.ChannelID, AccessHash: channel.AccessHash}, nil
	}
	return c.resolveUsername(ctx, api, parsed.Username)
}

// inputPeer resolves a chat reference. Accepted forms: @username, bare
// usernames, t.me links, marked channel ids, negative basic group ids and
// positive user ids. User ids must have been seen by this account.
func (c *MTProtoClient) inputPeer(ctx context.Context, api *tg.Client, ref string) (tg.InputPeerClass, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, accounterrors.ErrChatNotFound
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return c.resolveUsername(ctx, api, normalizeChatRef(ref))
	}

	switch {
	case isMarkedChannelID(id):
		channel, err := c.resolveChannel(ctx, api, bareChannelID(id))
		if err != nil {
			return nil, err
		}
		return &tg.InputPeerChannel{ChannelID: channel.ChannelID, AccessHash: channel.AccessHash}, nil
	case id < 0:
		return &tg.InputPeerChat{ChatID: -id}, nil
	default:
		if hash, ok := c.peers.user(id); ok {
			return &tg.InputPeerUser{UserID: id, AccessHash: hash}, nil
		}
		return nil, fmt.Errorf("%w: user %d has not been seen by this account", accounterrors.ErrChatNotFound, id)
	}
}
