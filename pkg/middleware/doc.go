// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、CORS設定など、全サービスで共通して使用する
// ミドルウェアを含む。呼び出し元の認証は上流で処理される前提のため、
// 認証ミドルウェアは持たない。
package middleware
