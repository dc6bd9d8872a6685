package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID generates a collection-unique record id: a random UUID salted with
// the current time in hex millis. The salt keeps ids unique even if two
// devices generate ids in the same instant with a weak entropy source.
func NewID() string {
	return fmt.Sprintf("%s-%x", uuid.NewString(), time.Now().UnixMilli())
}
