package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

// decodeAPIError はレスポンスボディを統一エラーフォーマットとしてデコードする。
func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()

	var body apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// decodeSuccess はレスポンスボディを{success:true}としてデコードする。
func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) successResponse {
	t.Helper()

	var body successResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success body: %v", err)
	}
	return body
}
