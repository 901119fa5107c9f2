// Package domain defines the persistence models for conversations, their
// handoff state, and WhatsApp messages. These types are mapped with GORM and
// form the core data layer of the admin panel.
package domain

import (
	"time"
)

// Mode is the handoff mode of a conversation: answered by the workflow
// engine ("bot") or by a human operator ("human").
type Mode string

const (
	ModeBot   Mode = "bot"
	ModeHuman Mode = "human"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool { return m == ModeBot || m == ModeHuman }

// Chat is the primary record of a conversation owned by a tenant. Besides the
// handoff state it carries the summary shown in the dashboard chat list.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - ClientID / ChatID: natural key; unique per tenant.
//   - ContactName / PhoneNumber: end-customer identity (defaults to ChatID).
//   - LastMessage / LastMessageAt: preview of the latest message.
//   - UnreadCount: inbound messages not yet opened by an operator.
//   - Status / StatusChangedAt: handoff mode and the time it last moved
//     into human (nil while in bot mode).
type Chat struct {
	ID              string     `json:"-"                   gorm:"type:char(36);primaryKey"`
	ClientID        string     `json:"clientId"            gorm:"type:varchar(64);not null;uniqueIndex:ux_chats_client_chat,priority:1"`
	ChatID          string     `json:"chatId"              gorm:"type:varchar(128);not null;uniqueIndex:ux_chats_client_chat,priority:2"`
	ContactName     string     `json:"contactName"         gorm:"type:varchar(255);not null;default:''"`
	PhoneNumber     string     `json:"phoneNumber"         gorm:"type:varchar(32);not null;default:''"`
	LastMessage     string     `json:"lastMessage"         gorm:"type:text;not null;default:''"`
	LastMessageAt   *time.Time `json:"lastMessageTimestamp" gorm:"index"`
	UnreadCount     int        `json:"unreadCount"         gorm:"not null;default:0"`
	Status          Mode       `json:"chatStatus"          gorm:"column:chat_status;type:varchar(8);not null;default:'bot';index;check:chat_status IN ('bot','human')"`
	StatusChangedAt *time.Time `json:"statusChangeTime"    gorm:"column:status_change_time"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// ChatState is the secondary handoff record for a conversation. It mirrors
// Chat.Status and Chat.StatusChangedAt and is kept for readers that only
// consult the state table.
type ChatState struct {
	ID              string     `json:"-"                gorm:"type:char(36);primaryKey"`
	ClientID        string     `json:"clientId"         gorm:"type:varchar(64);not null;uniqueIndex:ux_chat_states_client_chat,priority:1"`
	ChatID          string     `json:"chatId"           gorm:"type:varchar(128);not null;uniqueIndex:ux_chat_states_client_chat,priority:2"`
	Status          Mode       `json:"chatStatus"       gorm:"column:chat_status;type:varchar(8);not null;default:'bot';check:chat_status IN ('bot','human')"`
	StatusChangedAt *time.Time `json:"statusChangeTime" gorm:"column:status_change_time"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for ChatState.
func (ChatState) TableName() string { return "chat_states" }

// Message senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message delivery states.
const (
	MessageReceived = "received"
	MessageSent     = "sent"
	MessageRead     = "read"
	MessageFailed   = "failed"
)

// Message is a single WhatsApp message within a tenant's conversation.
// Inbound messages arrive through the ingress endpoint; outbound manual
// replies are written by the panel and relayed to the Graph API.
type Message struct {
	ID           string    `json:"id"                     gorm:"type:varchar(128);primaryKey"`
	ClientID     string    `json:"clientId"               gorm:"type:varchar(64);not null;index:idx_msgs_client_chat,priority:1"`
	ChatID       string    `json:"chatId"                 gorm:"type:varchar(128);not null;index:idx_msgs_client_chat,priority:2"`
	Sender       string    `json:"sender"                 gorm:"type:varchar(16);not null"`
	Content      string    `json:"content"                gorm:"type:text;not null"`
	PhoneNumber  string    `json:"phoneNumber"            gorm:"type:varchar(32);not null;default:''"`
	Status       string    `json:"status"                 gorm:"type:varchar(16);not null;default:'sent'"`
	ErrorMessage string    `json:"errorMessage,omitempty" gorm:"type:text"`
	Timestamp    time.Time `json:"timestamp"              gorm:"index:idx_msgs_client_chat,priority:3"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Tenant holds per-tenant credentials for the WhatsApp Business API. The
// ClientID doubles as the phone-number id in Graph API URLs.
type Tenant struct {
	ClientID      string    `gorm:"type:varchar(64);primaryKey"`
	Name          string    `gorm:"type:varchar(255);not null;default:''"`
	WhatsAppToken string    `gorm:"column:whatsapp_token;type:text;not null;default:''"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the database table name for Tenant.
func (Tenant) TableName() string { return "tenants" }
