// README: Error taxonomy shared by modules and the HTTP layer.
package types

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUpstreamGateway = errors.New("upstream gateway error")
	ErrAuthentication  = errors.New("authentication failed")
	ErrConfiguration   = errors.New("configuration error")
)
