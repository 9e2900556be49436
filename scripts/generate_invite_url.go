package main

import (
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

// botPermissions は、/imagine と /retro の結果を投稿するのに必要な権限です
const botPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionAttachFiles

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("警告: .envファイルの読み込みに失敗しました: %v", err)
	}

	// Bot Tokenを取得
	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN が設定されていません")
	}

	// Discordセッションを作成
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Fatalf("Discordセッションの作成に失敗: %v", err)
	}
	defer session.Close()

	// Botの情報を取得
	user, err := session.User("@me")
	if err != nil {
		log.Fatalf("Bot情報の取得に失敗: %v", err)
	}

	fmt.Printf("🤖 Bot情報:\n")
	fmt.Printf("   名前: %s\n", user.Username)
	fmt.Printf("   Client ID: %s\n", user.ID)
	fmt.Println()

	// 招待URLを生成
	fmt.Printf("🔗 Bot招待URL:\n")
	fmt.Printf("   %s\n", inviteURL(user.ID))
	fmt.Println()

	fmt.Printf("📋 必要な権限:\n")
	fmt.Printf("   - View Channels (%d)\n", discordgo.PermissionViewChannel)
	fmt.Printf("   - Send Messages (%d)\n", discordgo.PermissionSendMessages)
	fmt.Printf("   - Attach Files (%d)\n", discordgo.PermissionAttachFiles)
	fmt.Printf("   - 合計: %d\n", botPermissions)
	fmt.Println()

	fmt.Printf("🎯 Botの使い方:\n")
	fmt.Printf("   /imagine prompt:<説明> [style]  画像を生成します\n")
	fmt.Printf("   /retro photo:<写真> [label]       写真をレトロ風に変換します\n")
	fmt.Printf("   /ask question:<質問>             Geminiに質問します\n")
	fmt.Printf("   /history [count]                 最近の生成履歴を表示します\n")
}

// inviteURL は、スラッシュコマンドのスコープを含む招待URLを返します
func inviteURL(clientID string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("permissions", fmt.Sprint(botPermissions))
	q.Set("scope", "bot applications.commands")
	return "https://discord.com/api/oauth2/authorize?" + q.Encode()
}
