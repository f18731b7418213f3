package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/PabloPavan/data_explorer/internal/upstream"
)

const pathUsers = "/api/users"

// maxBodyBytes bounds a single page response.
const maxBodyBytes = 4 << 20

// Repository reads users from the remote API.
type Repository struct {
	base *upstream.Base
}

func NewRepository(base *upstream.Base) *Repository {
	return &Repository{base: base}
}

// List issues exactly one GET for q.
func (r *Repository) List(ctx context.Context, q Query) (*Page, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	req, err := r.base.NewGet(ctx, pathUsers, q.Values())
	if err != nil {
		return nil, err
	}

	res, err := r.base.D().Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodyBytes))
		return nil, &StatusError{StatusCode: res.StatusCode}
	}

	var page Page
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodyBytes)).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if page.Data == nil {
		page.Data = []User{}
	}
	return &page, nil
}
