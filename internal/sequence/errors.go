package sequence

import "errors"

var (
	ErrUnknownKind     = errors.New("unknown sequence kind")
	ErrBadDuration     = errors.New("bad sequence duration")
	ErrBadRepeat       = errors.New("bad repeat token")
	ErrMalformedName   = errors.New("malformed sequence file name")
	ErrBadBreakpoints  = errors.New("bad breakpoints")
	ErrUnsupportedFile = errors.New("unsupported sequence file")
)
