package chat

import (
	"context"
	"log"

	"firebase.google.com/go/v4/messaging"
)

// Messenger はプッシュ通知プロバイダへの送信インターフェース。
// 本番では *messaging.Client（FCM）が実装する。資格情報を持つ
// クライアントの生成とライフサイクルはエントリポイントが所有し、
// サーバーには構築時に注入される。
type Messenger interface {
	// SendEach は複数の通知を1回のバッチとして送信する。
	// 戻り値のResponsesは入力メッセージと同じ順序で並ぶ。
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
	// Send は単一の通知を送信し、プロバイダのメッセージIDを返す。
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FanoutResult はファンアウト1回分の集計結果。リクエストごとに
// 計算される一時的な値であり、永続化はしない。
type FanoutResult struct {
	// SuccessCount は送信に成功したトークン数。
	SuccessCount int
	// FailureCount は送信に失敗したトークン数。
	FailureCount int
	// Err はバッチ送信自体が実行できなかった場合のエラー。
	// 設定されている場合、トークンごとのカウントは意味を持たない。
	Err error
}

// dispatch は受信者の各デバイストークンへ通知をファンアウトする。
// トークンが1つもない場合は何もせずnilを返す（通知は任意であり、
// メッセージ送信の成功条件ではない）。バッチ送信自体が失敗した場合も
// エラーを呼び出し元に伝播させず、FanoutResultに格納して返す。
func (s *Server) dispatch(ctx context.Context, tokens []string, title, body string, data map[string]string) *FanoutResult {
	if len(tokens) == 0 {
		return nil
	}

	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		})
	}

	log.Printf("プッシュ通知をファンアウトします: tokens=%d", len(tokens))

	batch, err := s.messenger.SendEach(ctx, messages)
	if err != nil {
		log.Printf("バッチ送信に失敗: %v", err)
		return &FanoutResult{Err: err}
	}

	// プロバイダの応答は入力トークンと位置で対応する。インデックスで
	// 突き合わせてから集計しないと、失敗をトークンに帰属できない。
	result := &FanoutResult{}
	for i, resp := range batch.Responses {
		if resp.Success {
			result.SuccessCount++
			log.Printf("通知 %d/%d を送信しました", i+1, len(tokens))
			continue
		}
		result.FailureCount++
		log.Printf("通知 %d/%d の送信に失敗: %v", i+1, len(tokens), resp.Error)
	}
	return result
}
