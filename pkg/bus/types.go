package bus

import "time"

// InboundMessage is one user utterance waiting for the assistant loop.
type InboundMessage struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	SenderID   string    `json:"sender_id"`
	ChatID     string    `json:"chat_id"`
	Content    string    `json:"content"`
	ReceivedAt time.Time `json:"received_at"`

	reply chan OutboundMessage
}

// OutboundMessage is the assistant's answer to an InboundMessage.
type OutboundMessage struct {
	RequestID string `json:"request_id"`
	Channel   string `json:"channel"`
	ChatID    string `json:"chat_id"`
	Content   string `json:"content"`
	Source    string `json:"source"`
}

// ReplyTo builds the outbound skeleton addressed back to msg's sender.
func (msg InboundMessage) ReplyTo(content, source string) OutboundMessage {
	return OutboundMessage{
		RequestID: msg.ID,
		Channel:   msg.Channel,
		ChatID:    msg.ChatID,
		Content:   content,
		Source:    source,
	}
}
