package provider

import "encoding/json"

// rawEnvelope models the wire shape of both carriers' purchase responses,
// including the known bug surface of spec §6: timeout/ip are sometimes
// top-level fields and sometimes nested one level down under "response".
// Both locations are unmarshaled and parseResult prefers whichever is
// non-empty, checking top-level first.
type rawEnvelope struct {
	Success    bool   `json:"success"`
	TxnID      string `json:"txn_id"`
	Folio      string `json:"folio"`
	SaldoFinal string `json:"saldo_final"`
	Timeout    string `json:"timeout"`
	IP         string `json:"ip"`
	Message    string `json:"message"`

	Response *struct {
		Timeout string `json:"timeout"`
		IP      string `json:"ip"`
	} `json:"response"`
}

// parseResult decodes a carrier's raw purchase response body into a
// PurchaseResult, preserving body verbatim in RawResponse regardless of
// whether parsing succeeds.
func parseResult(body []byte) (PurchaseResult, error) {
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return PurchaseResult{}, err
	}

	res := PurchaseResult{
		Ok:          env.Success,
		TxnID:       env.TxnID,
		Folio:       env.Folio,
		SaldoFinal:  env.SaldoFinal,
		Timeout:     env.Timeout,
		IP:          env.IP,
		Message:     env.Message,
		RawResponse: body,
	}
	if res.Timeout == "" && env.Response != nil {
		res.Timeout = env.Response.Timeout
	}
	if res.IP == "" && env.Response != nil {
		res.IP = env.Response.IP
	}
	return res, nil
}
