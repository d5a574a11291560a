package public

import (
	"github.com/google/uuid"
	"github.com/langowen/converter/internal/converter/widget"
)

type Sessions interface {
	Mount() (uuid.UUID, *widget.Widget, error)
	Get(id uuid.UUID) (*widget.Widget, error)
	Unmount(id uuid.UUID) error
}
