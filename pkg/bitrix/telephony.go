package bitrix

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/rotisserie/eris"
)

func (c *httpClient) RegisterCall(ctx context.Context, fields map[string]any) (*CallRegistration, error) {
	raw, err := c.Call(ctx, "telephony.externalcall.register", fields)
	if err != nil {
		return nil, err
	}

	var reg CallRegistration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, eris.Wrap(err, "bitrix: unmarshal externalcall.register result")
	}
	if reg.CallID == "" {
		return nil, eris.Errorf("bitrix: externalcall.register returned no CALL_ID: %s", string(raw))
	}
	return &reg, nil
}

func (c *httpClient) FinishCall(ctx context.Context, fields map[string]any) error {
	_, err := c.Call(ctx, "telephony.externalcall.finish", fields)
	return err
}

func (c *httpClient) AttachRecord(ctx context.Context, callID, filename string, content []byte) error {
	_, err := c.Call(ctx, "telephony.externalcall.attachRecord", map[string]any{
		"CALL_ID":      callID,
		"FILENAME":     filename,
		"FILE_CONTENT": base64.StdEncoding.EncodeToString(content),
	})
	return err
}
