// ディレクトリサービスのエントリポイント。
// ユーザーの表示名とデバイストークンの登録・解決を担当する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/pigeon/internal/directory"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server, err := directory.NewServer(port)
	if err != nil {
		log.Fatalf("ディレクトリサーバーの初期化に失敗: %v", err)
	}

	log.Printf("ディレクトリサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("ディレクトリサービスの起動に失敗: %v", err)
	}
}
