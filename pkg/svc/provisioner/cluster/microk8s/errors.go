package microk8sprovisioner

import "errors"

// ErrUnitCountMismatch is returned when the model holds a different number of units than requested.
var ErrUnitCountMismatch = errors.New("unexpected number of units")

// ErrMasterAddressUnknown is returned when the master unit has no address to join against.
var ErrMasterAddressUnknown = errors.New("master unit has no address")
