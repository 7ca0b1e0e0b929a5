package models

import "encoding/json"

// Identity represents the authenticated user as reported by the API.
// The server uses Mongo-style "_id" for the primary key; "id" is accepted
// as a fallback since /auth/me and /auth/login disagree on the field name.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// wireIdentity is the raw shape returned by the API.
type wireIdentity struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// UnmarshalJSON normalizes the two id spellings used by the API.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var w wireIdentity
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	*i = Identity{
		ID:    id,
		Name:  w.Name,
		Email: w.Email,
		Role:  ParseRole(w.Role),
	}
	return nil
}
