// Package api 處理 HTTP 請求路由。
//
// SetupRoutes 組裝中間件並把每組路由綁定到對應的 handler；
// handler 只負責把 HTTP 請求轉為服務呼叫，並把結果轉回 HTTP 響應。
package api
