package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/entities"
	accounterrors "github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/account/errors"
	"github.com/ItsOrv/Telegram-Panel-sub000/internal/domain/ops"
	apperrors "github.com/ItsOrv/Telegram-Panel-sub000/pkg/errors"
)

// JoinChat joins a chat by invite link, public t.me link or username.
// Already being a member is treated as success.
func (c *MTProtoClient) JoinChat(ctx context.Context, link string) error {
	api, err := c.ready()
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if hash, ok := inviteHash(link); ok {
		if _, err := api.MessagesImportChatInvite(ctx, hash); err != nil {
			if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
				return nil
			}
			return classifyError(err)
		}
		c.logger.Info().Str("link", link).Msg("Joined chat via invite link")
		return nil
	}

	peer, err := c.resolveUsername(ctx, api, normalizeChatRef(link))
	if err != nil {
		return err
	}
	channel, ok := asInputChannel(peer)
	if !ok {
		return fmt.Errorf("%w: %s is not a joinable chat", accounterrors.ErrChatNotFound, link)
	}
	if _, err := api.ChannelsJoinChannel(ctx, channel); err != nil {
		if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
			return nil
		}
		return classifyError(err)
	}
	c.logger.Info().Str("link", link).Msg("Joined chat")
	return nil
}

// LeaveChat leaves a chat referenced by link, username or numeric id.
func (c *MTProtoClient) LeaveChat(ctx context.Context, link string) error {
	api, err := c.ready()
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	peer, err := c.inputPeer(ctx, api, link)
	if err != nil {
		return err
	}
	switch p := peer.(type) {
	case *tg.InputPeerChannel:
		channel := &tg.InputChannel{ChannelID: p.ChannelID, AccessHash: p.AccessHash}
		if _, err := api.ChannelsLeaveChannel(ctx, channel); err != nil {
			return classifyError(err)
		}
	case *tg.InputPeerChat:
		_, err := api.MessagesDeleteChatUser(ctx, &tg.MessagesDeleteChatUserRequest{
			ChatID: p.ChatID,
			UserID: &tg.InputUserSelf{},
		})
		if err != nil {
			return classifyError(err)
		}
	default:
		return fmt.Errorf("%w: %s is not a group or channel", accounterrors.ErrChatNotFound, link)
	}
	c.logger.Info().Str("link", link).Msg("Left chat")
	return nil
}

// SendReaction reacts to the message referenced by a t.me message link.
func (c *MTProtoClient) SendReaction(ctx context.Context, link, emoji string) error {
	api, err := c.ready()
	if err != nil {
		return err
	}
	parsed, err := ops.ParseTelegramLink(link)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	peer, err := c.linkPeer(ctx, api, parsed)
	if err != nil {
		return err
	}

	req := &tg.MessagesSendReactionRequest{Peer: peer, MsgID: parsed.MessageID}
	req.SetReaction([]tg.ReactionClass{&tg.ReactionEmoji{Emoticon: emoji}})
	if _, err := api.MessagesSendReaction(ctx, req); err != nil {
		return classifyError(err)
	}
	return nil
}

// SendComment posts a comment under a channel post by replying to its copy
// in the linked discussion group.
func (c *MTProtoClient) SendComment(ctx context.Context, link, text string) error {
	api, err := c.ready()
	if err != nil {
		return err
	}
	parsed, err := ops.ParseTelegramLink(link)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	peer, err := c.linkPeer(ctx, api, parsed)
	if err != nil {
		return err
	}

	discussion, err := api.MessagesGetDiscussionMessage(ctx, &tg.MessagesGetDiscussionMessageRequest{
		Peer:  peer,
		MsgID: parsed.MessageID,
	})
	if err != nil {
		return classifyError(err)
	}
	c.peers.absorbUsers(discussion.Users)
	c.peers.absorbChats(discussion.Chats)

	groupID, replyTo, ok := discussionTarget(discussion)
	if !ok {
		return fmt.Errorf("%w: post has no discussion thread", accounterrors.ErrMessageNotFound)
	}
	group, err := c.resolveChannel(ctx, api, groupID)
	if err != nil {
		return err
	}

	req := &tg.MessagesSendMessageRequest{
		Peer:     &tg.InputPeerChannel{ChannelID: group.ChannelID, AccessHash: group.AccessHash},
		Message:  text,
		RandomID: rand.Int63(),
	}
	req.SetReplyTo(&tg.InputReplyToMessage{ReplyToMsgID: replyTo})
	if _, err := api.MessagesSendMessage(ctx, req); err != nil {
		return classifyError(err)
	}
	return nil
}

// discussionTarget extracts the discussion group id and the message to
// reply to from a getDiscussionMessage result.
func discussionTarget(d *tg.MessagesDiscussionMessage) (int64, int, bool) {
	for _, m := range d.Messages {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}
		peer, ok := msg.PeerID.(*tg.PeerChannel)
		if !ok {
			continue
		}
		return peer.ChannelID, msg.ID, true
	}
	return 0, 0, false
}

// VotePoll votes the 1-based option on the poll in the linked message.
func (c *MTProtoClient) VotePoll(ctx context.Context, link string, option int) error {
	api, err := c.ready()
	if err != nil {
		return err
	}
	parsed, err := ops.ParseTelegramLink(link)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	peer, err := c.linkPeer(ctx, api, parsed)
	if err != nil {
		return err
	}
	poll, err := c.pollAt(ctx, api, peer, parsed.MessageID)
	if err != nil {
		return err
	}
	if option < 1 || option > len(poll.Answers) {
		return apperrors.NewValidationError(fmt.Sprintf("Poll has %d options, cannot vote for option %d", len(poll.Answers), option))
	}

	_, err = api.MessagesSendVote(ctx, &tg.MessagesSendVoteRequest{
		Peer:    peer,
		MsgID:   parsed.MessageID,
		Options: [][]byte{poll.Answers[option-1].Option},
	})
	if err != nil {
		return classifyError(err)
	}
	return nil
}

// pollAt fetches the linked message and returns the poll it carries.
func (c *MTProtoClient) pollAt(ctx context.Context, api *tg.Client, peer tg.InputPeerClass, msgID int) (*tg.Poll, error) {
	ids := []tg.InputMessageClass{&tg.InputMessageID{ID: msgID}}

	var result tg.MessagesMessagesClass
	var err error
	if channel, ok := asInputChannel(peer); ok {
		result, err = api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: channel,
			ID:      ids,
		})
	} else {
		result, err = api.MessagesGetMessages(ctx, ids)
	}
	if err != nil {
		return nil, classifyError(err)
	}

	msg, ok := firstMessage(result)
	if !ok {
		return nil, fmt.Errorf("%w: message %d", accounterrors.ErrMessageNotFound, msgID)
	}
	media, ok := msg.Media.(*tg.MessageMediaPoll)
	if !ok {
		return nil, accounterrors.ErrNotAPoll
	}
	return &media.Poll, nil
}

// firstMessage digs the first concrete message out of a messages result.
func firstMessage(result tg.MessagesMessagesClass) (*tg.Message, bool) {
	var list []tg.MessageClass
	switch r := result.(type) {
	case *tg.MessagesMessages:
		list = r.Messages
	case *tg.MessagesMessagesSlice:
		list = r.Messages
	case *tg.MessagesChannelMessages:
		list = r.Messages
	}
	for _, m := range list {
		if msg, ok := m.(*tg.Message); ok {
			return msg, true
		}
	}
	return nil, false
}

// BlockUser blocks a user this account has previously seen. Telegram
// requires the user's access hash, so unknown ids fail with
// ErrChatNotFound after a dialog backfill attempt.
func (c *MTProtoClient) BlockUser(ctx context.Context, userID int64) error {
	api, err := c.ready()
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	hash, ok := c.peers.user(userID)
	if !ok {
		if err := c.loadDialogPeers(ctx, api); err != nil {
			return err
		}
		hash, ok = c.peers.user(userID)
	}
	if !ok {
		return fmt.Errorf("%w: user %d has not been seen by this account", accounterrors.ErrChatNotFound, userID)
	}

	_, err = api.ContactsBlock(ctx, &tg.ContactsBlockRequest{
		ID: &tg.InputPeerUser{UserID: userID, AccessHash: hash},
	})
	if err != nil {
		return classifyError(err)
	}
	c.logger.Info().Int64("user_id", userID).Msg("Blocked user")
	return nil
}

// SendMessage sends a text message to a user, group or channel.
func (c *MTProtoClient) SendMessage(ctx context.Context, target, text string) error {
	api, err := c.ready()
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	peer, err := c.inputPeer(ctx, api, target)
	if err != nil {
		return err
	}
	_, err = api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  text,
		RandomID: rand.Int63(),
	})
	if err != nil {
		return classifyError(err)
	}
	return nil
}

// GroupDialogs lists the group and supergroup chats the account belongs
// to. Supergroup ids come back in the -100 marked form; broadcast
// channels are excluded.
func (c *MTProtoClient) GroupDialogs(ctx context.Context, limit int) ([]entities.Dialog, error) {
	api, err := c.ready()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = dialogPageSize
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		Limit:      limit,
		OffsetPeer: &tg.InputPeerEmpty{},
	})
	if err != nil {
		return nil, classifyError(err)
	}

	var chats []tg.ChatClass
	switch d := result.(type) {
	case *tg.MessagesDialogs:
		c.peers.absorbUsers(d.Users)
		c.peers.absorbChats(d.Chats)
		chats = d.Chats
	case *tg.MessagesDialogsSlice:
		c.peers.absorbUsers(d.Users)
		c.peers.absorbChats(d.Chats)
		chats = d.Chats
	default:
		return nil, fmt.Errorf("unexpected dialogs result %T", result)
	}

	dialogs := make([]entities.Dialog, 0, len(chats))
	for _, chat := range chats {
		switch ch := chat.(type) {
		case *tg.Chat:
			if ch.Deactivated || ch.Left {
				continue
			}
			dialogs = append(dialogs, entities.Dialog{ID: -ch.ID, Title: ch.Title})
		case *tg.Channel:
			if !ch.Megagroup || ch.Left {
				continue
			}
			dialogs = append(dialogs, entities.Dialog{
				ID:       markedChannelID(ch.ID),
				Title:    ch.Title,
				Username: ch.Username,
			})
		}
	}
	return dialogs, nil
}

// LatestReply returns the text of the newest message in the dialog with
// target.
func (c *MTProtoClient) LatestReply(ctx context.Context, target string) (string, error) {
	api, err := c.ready()
	if err != nil {
		return "", err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	peer, err := c.inputPeer(ctx, api, target)
	if err != nil {
		return "", err
	}
	result, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{Peer: peer, Limit: 1})
	if err != nil {
		return "", classifyError(err)
	}

	msg, ok := firstMessage(result)
	if !ok {
		return "", fmt.Errorf("%w: empty dialog with %s", accounterrors.ErrMessageNotFound, target)
	}
	return msg.Message, nil
}

// ResolveChat resolves a chat reference to the numeric id used across the
// panel. Channels resolve to the -100 marked form; numeric refs pass
// through unchanged.
func (c *MTProtoClient) ResolveChat(ctx context.Context, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}

	api, err := c.ready()
	if err != nil {
		return 0, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	peer, err := c.resolveUsername(ctx, api, normalizeChatRef(ref))
	if err != nil {
		return 0, err
	}
	switch p := peer.(type) {
	case *tg.InputPeerUser:
		return p.UserID, nil
	case *tg.InputPeerChat:
		return -p.ChatID, nil
	case *tg.InputPeerChannel:
		return markedChannelID(p.ChannelID), nil
	}
	return 0, fmt.Errorf("%w: %s", accounterrors.ErrChatNotFound, ref)
}
