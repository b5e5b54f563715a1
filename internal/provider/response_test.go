package provider

import "testing"

func TestParseResult_TopLevelTimeoutAndIP(t *testing.T) {
	body := []byte(`{"success":true,"txn_id":"T1","folio":"F1","saldo_final":"12.50","timeout":"1.23","ip":"10.0.0.1"}`)
	res, err := parseResult(body)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if !res.Ok || res.Timeout != "1.23" || res.IP != "10.0.0.1" {
		t.Errorf("got %+v", res)
	}
}

func TestParseResult_NestedTimeoutAndIP(t *testing.T) {
	body := []byte(`{"success":true,"txn_id":"T1","folio":"F1","response":{"timeout":"2.00","ip":"10.0.0.2"}}`)
	res, err := parseResult(body)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if res.Timeout != "2.00" || res.IP != "10.0.0.2" {
		t.Errorf("expected nested timeout/ip to be used as fallback, got %+v", res)
	}
}

func TestParseResult_TopLevelWinsOverNested(t *testing.T) {
	body := []byte(`{"success":true,"timeout":"1.23","ip":"10.0.0.1","response":{"timeout":"9.99","ip":"10.0.0.9"}}`)
	res, err := parseResult(body)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if res.Timeout != "1.23" || res.IP != "10.0.0.1" {
		t.Errorf("expected top-level to win, got %+v", res)
	}
}

func TestParseResult_FailurePreservesRawResponse(t *testing.T) {
	body := []byte(`{"success":false,"message":"SIM blocked"}`)
	res, err := parseResult(body)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if res.Ok || res.Message != "SIM blocked" {
		t.Errorf("got %+v", res)
	}
	if string(res.RawResponse) != string(body) {
		t.Error("RawResponse must preserve the body verbatim")
	}
}
