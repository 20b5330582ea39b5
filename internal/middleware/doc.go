// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 包含請求 ID、存取日誌、JWT 驗證，以及將服務層錯誤轉換為 HTTP 回應的錯誤處理。
package middleware
