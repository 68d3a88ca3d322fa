// チャットサービスのエントリポイント。
// メッセージ送信リクエストを受け付け、会話の永続化と
// プッシュ通知のファンアウトを行う。
// FCMクライアントはここで生成し、サーバーに注入する。
package main

import (
	"context"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/nao1215/pigeon/internal/chat"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	// Firebase Admin SDKの初期化。秘密鍵ファイルは
	// GOOGLE_APPLICATION_CREDENTIALSで指定する。
	var opts []option.ClientOption
	if cred := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); cred != "" {
		opts = append(opts, option.WithCredentialsFile(cred))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		log.Fatalf("Firebaseアプリの初期化に失敗: %v", err)
	}

	messenger, err := app.Messaging(ctx)
	if err != nil {
		log.Fatalf("FCMクライアントの初期化に失敗: %v", err)
	}

	server, err := chat.NewServer(port, messenger)
	if err != nil {
		log.Fatalf("チャットサーバーの初期化に失敗: %v", err)
	}

	log.Printf("チャットサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("チャットサービスの起動に失敗: %v", err)
	}
}
