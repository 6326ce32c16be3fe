package images

import "time"

// Vars maps variable names to known values (strings or JSON numbers).
type Vars map[string]any

// Clone returns a shallow copy; a nil receiver yields an empty map.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// ImageRecord is a stored image awaiting analysis. Image is the canonical
// base64 encoding of the uploaded bytes and is never empty.
type ImageRecord struct {
	ID         string
	Image      string
	DictOfVars Vars
	CreatedAt  time.Time
}
