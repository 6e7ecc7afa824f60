package buffer

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	EntityLoginActivity = "login_activity"

	OperationAppend = "append"
)

// ErrFull is returned by Enqueue once the store holds its configured maximum.
var ErrFull = errors.New("buffer: store is full")

// Item is a write that could not reach primary storage and waits for replay.
// ID is the id of the buffered record; the store keeps at most one item per id.
type Item struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Entity     string          `json:"entity"`
	Operation  string          `json:"operation"`
	Data       json.RawMessage `json:"data"`
	Retries    int             `json:"retries"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewItem encodes payload into an item for entity.
func NewItem(id, userID, entity, operation string, payload any) (Item, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Item{}, err
	}
	return Item{
		ID:        id,
		UserID:    userID,
		Entity:    entity,
		Operation: operation,
		Data:      data,
	}, nil
}

// Decode unmarshals the item payload into dst.
func (i Item) Decode(dst any) error {
	return json.Unmarshal(i.Data, dst)
}

func (i *Item) normalize(now time.Time) {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.EnqueuedAt.IsZero() {
		i.EnqueuedAt = now
	}
}
