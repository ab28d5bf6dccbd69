package epidemic

import "errors"

// ErrTooStiff reports rates too fast to integrate within the substep cap.
var ErrTooStiff = errors.New("rates too stiff to integrate")
