package chat

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。db/chat/schema.sql と同期すること。
const schema = `
CREATE TABLE IF NOT EXISTS messages (
    -- メッセージの一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 会話キー。参加者2人のIDを辞書順に並べて "-" で連結したもの
    conversation_key TEXT NOT NULL,
    -- 送信者のユーザーID
    sender_id TEXT NOT NULL,
    -- 受信者のユーザーID
    receiver_id TEXT NOT NULL,
    -- メッセージ本文
    text TEXT NOT NULL,
    -- サーバー側で採番するコミット日時。同一秒内の順序を保つため
    -- ミリ秒精度で記録する
    created_at DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);

-- 会話単位・時系列順の読み出しを高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_messages_conversation
    ON messages(conversation_key, created_at);

CREATE TABLE IF NOT EXISTS conversations (
    -- サマリを所有するユーザーのID
    owner_id TEXT NOT NULL,
    -- 会話相手のユーザーID
    counterpart_id TEXT NOT NULL,
    -- 会話相手の表示名
    user_name TEXT NOT NULL,
    -- 最新メッセージの本文
    last_message TEXT NOT NULL,
    -- 最新メッセージの送信者ID
    sender_id TEXT NOT NULL,
    -- 最新メッセージの受信者ID
    receiver_id TEXT NOT NULL,
    -- 最新メッセージの日時（ミリ秒精度）
    updated_at DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
    -- (所有者, 相手) の組につきサマリは常に1件
    PRIMARY KEY (owner_id, counterpart_id)
);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
