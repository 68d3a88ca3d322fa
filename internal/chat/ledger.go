package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	chatdb "github.com/nao1215/pigeon/internal/chat/db"
)

// conversationKey は参加者2人のIDから正準化された会話キーを導出する。
// IDを辞書順に並べて "-" で連結するため、どちらが送信者でも
// 同じペアは必ず同じキーになる。
func conversationKey(a, b string) string {
	if a < b {
		return fmt.Sprintf("%s-%s", a, b)
	}
	return fmt.Sprintf("%s-%s", b, a)
}

// Ledger は会話の永続表現（メッセージログと会話サマリ）を管理する。
// メッセージログは追記のみ、サマリは (所有者, 相手) の組ごとに
// 最新状態で上書きされる。
type Ledger struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *chatdb.Queries
}

// NewLedger は新しいLedgerを生成する。
func NewLedger(queries *chatdb.Queries) *Ledger {
	return &Ledger{queries: queries}
}

// AppendMessage はメッセージを会話のログに追記し、コミット済みの行を返す。
// タイムスタンプは呼び出し側ではなくストアがコミット時に採番するため、
// 並行する送信者間でも順序が一貫する。
func (l *Ledger) AppendMessage(ctx context.Context, key, senderID, receiverID, text string) (chatdb.Message, error) {
	msg, err := l.queries.AppendMessage(ctx, chatdb.AppendMessageParams{
		ID:              uuid.New().String(),
		ConversationKey: key,
		SenderID:        senderID,
		ReceiverID:      receiverID,
		Text:            text,
	})
	if err != nil {
		return chatdb.Message{}, fmt.Errorf("メッセージの追記に失敗: %w", err)
	}
	return msg, nil
}

// UpsertSummaryPair は送信者視点と受信者視点の会話サマリを書き込む。
// 送信者のサマリには受信者の表示名、受信者のサマリには送信者の表示名が入る。
// 2件の書き込みは並行して実行され、レコード間の原子性は保証しない。
// 片方だけ失敗した場合は次のメッセージまで2つのビューが食い違うが、
// 可用性を優先する設計として許容している。
func (l *Ledger) UpsertSummaryPair(ctx context.Context, senderID, receiverID, senderName, receiverName, text string) error {
	var wg sync.WaitGroup
	var senderErr, receiverErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		senderErr = l.queries.UpsertConversation(ctx, chatdb.UpsertConversationParams{
			OwnerID:       senderID,
			CounterpartID: receiverID,
			UserName:      receiverName,
			LastMessage:   text,
			SenderID:      senderID,
			ReceiverID:    receiverID,
		})
	}()
	go func() {
		defer wg.Done()
		receiverErr = l.queries.UpsertConversation(ctx, chatdb.UpsertConversationParams{
			OwnerID:       receiverID,
			CounterpartID: senderID,
			UserName:      senderName,
			LastMessage:   text,
			SenderID:      senderID,
			ReceiverID:    receiverID,
		})
	}()
	wg.Wait()

	if err := errors.Join(senderErr, receiverErr); err != nil {
		return fmt.Errorf("会話サマリの書き込みに失敗: %w", err)
	}
	return nil
}
