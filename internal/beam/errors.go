package beam

import "errors"

// Fire request rejections. Configuration errors are wrapped with detail, so
// match with errors.Is.
var (
	ErrPoolExhausted     = errors.New("beam pool exhausted")
	ErrMissingWeapon     = errors.New("missing weapon")
	ErrNotBeamWeapon     = errors.New("weapon is not a beam")
	ErrWrongFireMethod   = errors.New("wrong fire method for beam type")
	ErrMissingShooter    = errors.New("missing shooter")
	ErrMissingTarget     = errors.New("missing target")
	ErrUnsupportedTarget = errors.New("unsupported target kind")
	ErrMissingPoints     = errors.New("missing explicit points")
	ErrInvalidHandle     = errors.New("invalid beam handle")
)

// rejectReason is the metric label for a rejected fire request.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrPoolExhausted):
		return "pool_exhausted"
	case errors.Is(err, ErrMissingWeapon), errors.Is(err, ErrNotBeamWeapon):
		return "weapon"
	case errors.Is(err, ErrWrongFireMethod):
		return "fire_method"
	case errors.Is(err, ErrMissingShooter):
		return "shooter"
	case errors.Is(err, ErrMissingTarget), errors.Is(err, ErrUnsupportedTarget):
		return "target"
	case errors.Is(err, ErrMissingPoints):
		return "points"
	default:
		return "other"
	}
}
