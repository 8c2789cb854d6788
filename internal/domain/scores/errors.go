package scores

import "github.com/okian/podium/internal/domain/model"

// ErrInvalidScore is returned by batch writes that contain an unusable score.
var ErrInvalidScore = model.ErrInvalidScore
