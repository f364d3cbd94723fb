package bitrix

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// decodeID decodes a Bitrix entity-add result, which may arrive as a JSON
// number or a numeric string depending on the portal version.
func decodeID(raw json.RawMessage, method string) (int, error) {
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return asInt, nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err != nil {
		return 0, eris.Errorf("bitrix: %s: unexpected result %s", method, string(raw))
	}
	id, err := asNumber.Int64()
	if err != nil {
		return 0, eris.Wrapf(err, "bitrix: %s: non-integer result", method)
	}
	return int(id), nil
}

func (c *httpClient) AddLead(ctx context.Context, fields map[string]any) (int, error) {
	raw, err := c.Call(ctx, "crm.lead.add", map[string]any{"fields": fields})
	if err != nil {
		return 0, err
	}
	return decodeID(raw, "crm.lead.add")
}

func (c *httpClient) AddContact(ctx context.Context, fields map[string]any) (int, error) {
	raw, err := c.Call(ctx, "crm.contact.add", map[string]any{"fields": fields})
	if err != nil {
		return 0, err
	}
	return decodeID(raw, "crm.contact.add")
}

func (c *httpClient) ListItems(ctx context.Context, entityTypeID int, filter map[string]any, selectFields []string) ([]map[string]any, error) {
	raw, err := c.Call(ctx, "crm.item.list", map[string]any{
		"entityTypeId": entityTypeID,
		"filter":       filter,
		"select":       selectFields,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, eris.Wrap(err, "bitrix: unmarshal crm.item.list result")
	}
	return result.Items, nil
}

func (c *httpClient) GetUsers(ctx context.Context, filter map[string]any) ([]User, error) {
	merged := map[string]any{"ACTIVE": "Y"}
	for k, v := range filter {
		merged[k] = v
	}

	raw, err := c.Call(ctx, "user.get", map[string]any{"filter": merged})
	if err != nil {
		return nil, err
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, eris.Wrap(err, "bitrix: unmarshal user.get result")
	}
	return users, nil
}
