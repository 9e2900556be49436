package domain

import (
	"fmt"
)

// Requester は、生成をリクエストしたユーザーを表現する値オブジェクトです
type Requester struct {
	UserID    string
	Username  string
	GuildID   string
	ChannelID string
}

// SessionKey は、生成状態を追跡するためのキーを返します
func (r Requester) SessionKey() string {
	if r.GuildID == "" {
		return "dm:" + r.UserID
	}
	return r.GuildID + ":" + r.UserID
}

// String はRequesterの文字列表現を返します
func (r Requester) String() string {
	return fmt.Sprintf("Requester{UserID: %s, Username: %s, GuildID: %s, ChannelID: %s}",
		r.UserID, r.Username, r.GuildID, r.ChannelID)
}
