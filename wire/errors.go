package wire

import "errors"

// ErrBodyTooLong names a body or name the frame cannot carry. The encoders
// in this package do not return it: EncodeData carries the body as given
// and EncodeHeartbeat drops gossip entries until the frame fits.
var ErrBodyTooLong = errors.New("wire: body exceeds frame budget")

// Decode failures are never returned to callers: a malformed frame
// decodes to nil per the node's silent-drop policy. There is no sentinel
// for "malformed frame" by design.
