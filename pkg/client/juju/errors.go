package juju

import "errors"

// ErrInvalidRunTarget is returned when a run target names neither or both of an app and units.
var ErrInvalidRunTarget = errors.New("run target needs either an application or units")

// ErrApplicationNotFound is returned when the status has no such application.
var ErrApplicationNotFound = errors.New("application not found in model status")

// ErrMachineNotFound is returned when a unit references a machine missing from the status.
var ErrMachineNotFound = errors.New("machine not found in model status")

// ErrInvalidStatus is returned when `juju status` output cannot be decoded.
var ErrInvalidStatus = errors.New("invalid juju status output")

// ErrModelNotSettled is returned when units are still executing or not yet active.
var ErrModelNotSettled = errors.New("model has not settled")
